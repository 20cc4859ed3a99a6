// Package binder decodes HTTP request bodies into typed request values for
// use with handler.WithBinders.
//
// JSON enforces an application/json content type, a body size limit, strict
// field matching and a single top level value. String fields of the decoded
// value are trimmed of surrounding whitespace.
package binder
