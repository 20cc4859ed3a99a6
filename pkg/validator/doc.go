// Package validator provides composable, closure based validation rules.
//
//	err := validator.Apply(
//		validator.Required("name", req.Name),
//		validator.MaxLen("name", req.Name, 200),
//		validator.Email("email", req.Email),
//		validator.Optional(req.Phone, validator.Phone("phone", req.Phone)),
//	)
//
// Apply returns nil or a ValidationErrors value listing every failed rule in
// order. Each ValidationError carries a translation key for clients that
// localize messages.
package validator
