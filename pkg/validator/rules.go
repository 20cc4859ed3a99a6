package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	phoneRegex   = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// Required fails for blank strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required", Key: "validation.required"},
	}
}

// MaxLen fails when value has more than max runes.
func MaxLen(field, value string, maxLen int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= maxLen },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", maxLen),
			Key:     "validation.max_length",
		},
	}
}

// MinLen fails when value has fewer than min runes.
func MinLen(field, value string, minLen int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= minLen },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters", minLen),
			Key:     "validation.min_length",
		},
	}
}

// Email accepts a bare address with a dotted domain. Display names are rejected.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return strings.Contains(domain, ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address", Key: "validation.email"},
	}
}

// Phone accepts E.164 style numbers. Spaces, dashes, dots and parentheses are ignored.
func Phone(field, value string) Rule {
	return Rule{
		Check: func() bool { return phoneRegex.MatchString(phoneCleaner.Replace(value)) },
		Error: ValidationError{Field: field, Message: "must be a valid phone number", Key: "validation.phone"},
	}
}

// OneOf fails when value is not in options.
func OneOf[T comparable](field string, value T, options ...T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(options, value) },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of %v", options),
			Key:     "validation.one_of",
		},
	}
}

// Optional skips rule when value is blank.
func Optional(value string, rule Rule) Rule {
	check := rule.Check
	rule.Check = func() bool { return strings.TrimSpace(value) == "" || check() }
	return rule
}
