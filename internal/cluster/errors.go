package cluster

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ConnectivityError means the control plane could not be reached or did not
// answer in time.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// RejectedError means the control plane answered but refused the request
// (validation, RBAC, conflict).
type RejectedError struct {
	Op  string
	Err error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// ConfigError means client credentials could not be loaded. It is fatal at
// startup.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("load cluster credentials: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// classify sorts a client-go error into the connectivity/rejection taxonomy.
func classify(op string, err error) error {
	var status apierrors.APIStatus
	if errors.As(err, &status) && !isTransient(err) {
		return &RejectedError{Op: op, Err: err}
	}
	return &ConnectivityError{Op: op, Err: err}
}

// isTransient reports status errors that say the server was unavailable
// rather than that it refused the request.
func isTransient(err error) bool {
	return apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsServiceUnavailable(err) ||
		apierrors.IsTooManyRequests(err)
}

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsRejected reports whether err is a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
