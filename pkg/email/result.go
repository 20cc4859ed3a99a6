package email

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
)

// Result is the outcome of one delivery lineage. A failed delivery is
// reported here rather than as an error.
type Result struct {
	Success   bool           `json:"success"`
	MessageID string         `json:"message_id,omitempty"`
	LogID     string         `json:"log_id,omitempty"`
	TestMode  bool           `json:"test_mode,omitempty"`
	Attempts  int            `json:"attempts"`
	Error     *DeliveryError `json:"error,omitempty"`
}

// Err returns the delivery error, or nil for a successful result.
func (r Result) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// DeliveryError describes the last failed attempt of a lineage.
type DeliveryError struct {
	Message     string `json:"message"`
	Code        string `json:"code,omitempty"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}

func (e *DeliveryError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("attempt %d/%d: %s", e.Attempt, e.MaxAttempts, e.Message)
	}
	return fmt.Sprintf("attempt %d/%d: %s: %s", e.Attempt, e.MaxAttempts, e.Code, e.Message)
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

func (e *DeliveryError) entryError() deliverylog.EntryError {
	return deliverylog.EntryError{
		Message:     e.Message,
		Code:        e.Code,
		Attempt:     e.Attempt,
		MaxAttempts: e.MaxAttempts,
	}
}

func newDeliveryError(err error, attempt, maxAttempts int) *DeliveryError {
	de := &DeliveryError{Message: err.Error(), Attempt: attempt, MaxAttempts: maxAttempts}

	var te *TransportError
	switch {
	case errors.As(err, &te):
		de.Message = te.Message
		de.Code = te.Code
		if errors.Is(err, ErrTransportInit) {
			de.Code = CodeTransportInit
		}
	case errors.Is(err, ErrTransportInit):
		de.Code = CodeTransportInit
	}
	return de
}
