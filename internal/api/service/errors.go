package service

import "errors"

// ErrUnauthorized means the presented token value resolves to nothing: it was
// never issued, or it was revoked and is now absent from the store. It is a
// statement about the credential, never about system health.
var ErrUnauthorized = errors.New("unauthorized")

// InfrastructureError wraps a store or cache failure (unreachable, timed
// out). It is deliberately distinct from ErrUnauthorized so an outage is
// never reported as a bad credential.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func infraErr(op string, err error) error {
	return &InfrastructureError{Op: op, Err: err}
}
