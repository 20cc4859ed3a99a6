package templates

import "errors"

var (
	ErrUnknownTemplate = errors.New("templates: unknown template")
	ErrInvalidTemplate = errors.New("templates: invalid template definition")
	ErrRenderFailed    = errors.New("templates: render failed")
)
