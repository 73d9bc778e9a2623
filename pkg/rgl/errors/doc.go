// Package errors provides ConfigurationError, the single error kind of the
// rule group compiler, along with "did you mean" suggestions and source
// context extraction for terminal output.
package errors
