package filehub

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shodown96/filehub/internal/filehubapi"
	"github.com/shodown96/filehub/internal/httpx"
)

// ErrorInfo is the normalized, user-displayable description of a failure.
// Connectivity failures always carry the same fixed payload so display layers
// never need to distinguish "no server reachable" from "server said no".
type ErrorInfo struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NetworkErrorInfo is the fixed payload for connectivity failures.
var NetworkErrorInfo = ErrorInfo{
	Title:   "Network error",
	Message: "Please try again later, thank you.",
}

const genericFailureMessage = "Please try again later, thank you."

var (
	// ErrNotFound indicates the requested entry is missing.
	ErrNotFound = errors.New("filehub: not found")
)

// Error wraps a transport or server failure together with its normalized
// display payload.
type Error struct {
	Info  ErrorInfo
	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("filehub: %s: %v", e.Info.Title, e.cause)
	}
	return fmt.Sprintf("filehub: %s: %s", e.Info.Title, e.Info.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsErrorInfo extracts the normalized display payload from err. Errors that
// were never normalized fall back to the fixed network payload.
func AsErrorInfo(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Info
	}
	return NetworkErrorInfo
}

// normalizeError maps transport and HTTP failures onto *Error. A non-2xx
// response keeps the server-provided message when one exists; everything else
// is a connectivity failure and gets the fixed network payload.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	var httpErr *httpx.HTTPError
	if errors.As(err, &httpErr) {
		info := ErrorInfo{
			Title:   http.StatusText(httpErr.StatusCode),
			Message: genericFailureMessage,
		}
		if msg := filehubapi.Message(httpErr.Body); msg != "" {
			info.Message = msg
		}
		cause := err
		if httpErr.StatusCode == http.StatusNotFound {
			cause = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return &Error{Info: info, cause: cause}
	}
	return &Error{Info: NetworkErrorInfo, cause: err}
}
