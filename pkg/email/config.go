package email

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/mailrelay/pkg/environment"
)

// Supported values of EMAIL_PROVIDER.
const (
	ProviderSMTP     = "smtp"
	ProviderPostmark = "postmark"
)

// Config holds the mailer configuration loaded from the environment.
type Config struct {
	Host        string `env:"SMTP_HOST"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Secure      bool   `env:"SMTP_SECURE" envDefault:"false"`
	User        string `env:"SMTP_USER"`
	Password    string `env:"SMTP_PASS"`
	TLSInsecure bool   `env:"SMTP_TLS_INSECURE" envDefault:"false"`

	PoolSize    int           `env:"SMTP_POOL_SIZE" envDefault:"5"`
	MaxMessages int           `env:"SMTP_MAX_MESSAGES" envDefault:"100"`
	RateLimit   int           `env:"SMTP_RATE_LIMIT" envDefault:"5"`
	RateDelta   time.Duration `env:"SMTP_RATE_DELTA" envDefault:"1s"`

	From         string `env:"SMTP_FROM" envDefault:"noreply@localhost"`
	SupportEmail string `env:"SUPPORT_EMAIL"`
	AdminEmail   string `env:"ADMIN_EMAIL"`
	AppName      string `env:"APP_NAME" envDefault:"Mailrelay"`
	Environment  string `env:"APP_ENV" envDefault:"development"`

	MaxRetries int           `env:"EMAIL_MAX_RETRIES" envDefault:"3"`
	RetryDelay time.Duration `env:"EMAIL_RETRY_DELAY" envDefault:"5s"`

	Provider             string `env:"EMAIL_PROVIDER" envDefault:"smtp"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	TestMailboxDir string `env:"TEST_MAILBOX_DIR"`
}

// Env returns the normalized application environment.
func (c Config) Env() environment.Environment {
	return environment.Parse(c.Environment)
}

// TestMode reports whether sends are simulated without touching any transport.
func (c Config) TestMode() bool {
	return c.Env() == environment.Test
}

// UseMailbox reports whether messages go to the disposable local mailbox
// instead of a real relay.
func (c Config) UseMailbox() bool {
	if c.TestMode() {
		return true
	}
	if c.provider() == ProviderPostmark {
		return strings.TrimSpace(c.PostmarkServerToken) == ""
	}
	return strings.TrimSpace(c.Host) == ""
}

// DefaultFrom returns the sender used when a message sets none,
// formatted as "APP_NAME <SMTP_FROM>".
func (c Config) DefaultFrom() string {
	from := strings.TrimSpace(c.From)
	name := strings.TrimSpace(c.AppName)
	if name == "" || from == "" {
		return from
	}
	return fmt.Sprintf("%s <%s>", name, from)
}

// AdminRecipient returns the address that receives operational mail.
func (c Config) AdminRecipient() string {
	if c.AdminEmail != "" {
		return c.AdminEmail
	}
	return c.SupportEmail
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderSMTP
	}
	return p
}

// Validate checks the settings the mailer depends on.
func (c Config) Validate() error {
	var errs []error
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("EMAIL_MAX_RETRIES must be at least 1, got %d", c.MaxRetries))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("EMAIL_RETRY_DELAY must not be negative, got %s", c.RetryDelay))
	}
	if strings.TrimSpace(c.From) == "" {
		errs = append(errs, errors.New("SMTP_FROM is required"))
	}

	switch c.provider() {
	case ProviderSMTP:
		if !c.UseMailbox() {
			if c.Port <= 0 || c.Port > 65535 {
				errs = append(errs, fmt.Errorf("SMTP_PORT is out of range: %d", c.Port))
			}
			if c.PoolSize < 1 {
				errs = append(errs, fmt.Errorf("SMTP_POOL_SIZE must be at least 1, got %d", c.PoolSize))
			}
			if c.MaxMessages < 1 {
				errs = append(errs, fmt.Errorf("SMTP_MAX_MESSAGES must be at least 1, got %d", c.MaxMessages))
			}
			if c.RateLimit < 1 || c.RateDelta <= 0 {
				errs = append(errs, errors.New("SMTP_RATE_LIMIT and SMTP_RATE_DELTA must be positive"))
			}
		}
	case ProviderPostmark:
	default:
		errs = append(errs, fmt.Errorf("unsupported EMAIL_PROVIDER %q", c.Provider))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}
