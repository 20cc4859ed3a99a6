package email

import (
	"errors"

	"github.com/dmitrymomot/mailrelay/pkg/email/templates"
)

var (
	ErrInvalidEmailOptions = errors.New("email: invalid email options")
	ErrTransportInit       = errors.New("email: transport initialization failed")
	ErrDeliveryFailed      = errors.New("email: delivery failed")
	ErrInvalidConfig       = errors.New("email: invalid config")

	ErrUnknownTemplate = templates.ErrUnknownTemplate
	ErrRenderFailed    = templates.ErrRenderFailed
)
