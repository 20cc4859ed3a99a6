package environment

import (
	"context"
	"strings"
)

// Environment represents application environment.
type Environment string

const (
	// Development for development environment.
	Development Environment = "development"
	// Production for production environment.
	Production Environment = "production"
	// Staging for staging environment.
	Staging Environment = "staging"
	// Test for automated test runs. Outbound mail is simulated.
	Test Environment = "test"
)

// Parse normalizes a raw environment name, accepting the common short aliases.
// Unknown values are kept as-is so custom environments still round-trip.
func Parse(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "test", "testing":
		return Test
	case "development", "dev", "":
		return Development
	default:
		return Environment(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// IsProductionLike reports whether the environment talks to real recipients.
func (e Environment) IsProductionLike() bool {
	return e == Production || e == Staging
}

func (e Environment) String() string {
	return string(e)
}

type contextKey struct{}

// WithContext adds environment to context
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves environment from context
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(Environment)
	return env
}

// IsProduction checks if the environment from context is production
func IsProduction(ctx context.Context) bool {
	return FromContext(ctx) == Production
}

// IsDevelopment checks if the environment from context is development
func IsDevelopment(ctx context.Context) bool {
	return FromContext(ctx) == Development
}

// IsStaging checks if the environment from context is staging
func IsStaging(ctx context.Context) bool {
	return FromContext(ctx) == Staging
}

// IsTest checks if the environment from context is test
func IsTest(ctx context.Context) bool {
	return FromContext(ctx) == Test
}
