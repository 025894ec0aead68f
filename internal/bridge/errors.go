package bridge

import (
	"errors"
	"fmt"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

// Kind classifies a bridge failure. The kind decides how the failure is
// rendered into the result envelope; it never leaves the process in any
// other form.
type Kind string

const (
	// KindConfig means required connection parameters were absent.
	KindConfig Kind = "config"
	// KindValidation means the action name or its parameters were invalid.
	// Detected before any remote call.
	KindValidation Kind = "validation"
	// KindPrecondition means the operation is not valid for the VM's
	// current remote state. Remote state is unchanged.
	KindPrecondition Kind = "precondition"
	// KindAPI means the Proxmox API rejected or failed a request.
	KindAPI Kind = "api"
	// KindTimeout means a submitted job did not reach a terminal state
	// within its poll budget. The job may still complete remotely.
	KindTimeout Kind = "timeout"
	// KindInternal covers everything else: connectivity loss, unexpected
	// response shapes, programming errors.
	KindInternal Kind = "internal"
)

// Error is a classified bridge failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func preconditionError(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

func timeoutError(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

// classify maps an arbitrary error onto the failure taxonomy. Errors that
// are already classified pass through; structured Proxmox API failures map
// to KindAPI; anything else is internal.
func classify(err error) *Error {
	var bridgeErr *Error
	if errors.As(err, &bridgeErr) {
		return bridgeErr
	}

	var apiErr *proxmox.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindAPI, Message: apiErr.Error(), Err: err}
	}

	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}
