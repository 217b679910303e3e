package device

import (
	"fmt"
	"net/http"
)

// Op names a device operation
type Op string

const (
	OpLoad     Op = "load"
	OpSave     Op = "save"
	OpUpload   Op = "upload"
	OpDownload Op = "download"
	OpReset    Op = "reset"
	OpPing     Op = "ping"
)

// TransportError reports a device request that did not succeed: either the
// device answered with a non-2xx status, or the request or its response body
// could not be completed or decoded.
type TransportError struct {
	Op      Op
	Status  int    // HTTP status, 0 when no response was received
	Message string // response body excerpt for status failures
	Err     error  // underlying transport or decode error
}

func (e *TransportError) Error() string {
	if e.Status != 0 && !IsSuccessStatus(e.Status) {
		if e.Message != "" {
			return fmt.Sprintf("%s failed: HTTP %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Message)
		}
		return fmt.Sprintf("%s failed: HTTP %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
