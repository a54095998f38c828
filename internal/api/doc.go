// Package api defines the JSON wire format of the annotation HTTP API.
//
// Every response is wrapped in an Envelope. Failures carry an error code
// that maps one-to-one onto the domain sentinels, so the server and the
// remote client agree on classification:
//
//	400 VALIDATION_ERROR  domain.ErrValidation
//	404 NOT_FOUND         domain.ErrNotFound
//	409 ALREADY_EXISTS    domain.ErrAlreadyExists
//	5xx INTERNAL_ERROR    domain.ErrTransport
package api
