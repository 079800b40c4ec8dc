package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/deepnoodle-ai/docdb/wire"
)

var (
	ErrNotFound             = errors.New("document not found")
	ErrRangeNotSatisfiable  = errors.New("requested range not satisfiable")
	ErrTransport            = errors.New("transport failure")
	ErrConflict             = errors.New("conflict")
	ErrBadRequest           = errors.New("bad request")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// Error kinds carried in wire.ErrorResponse
const (
	KindNotFound            = wire.ErrorKindNotFound
	KindRangeNotSatisfiable = wire.ErrorKindRangeNotSatisfiable
	KindConflict            = wire.ErrorKindConflict
	KindBadRequest          = wire.ErrorKindBadRequest
	KindTransactionNotFound = wire.ErrorKindTransactionNotFound
	KindInternal            = wire.ErrorKindInternal
)

// ServiceError is a non-2xx response from the server
type ServiceError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("docdb service error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("docdb service error (status %d): %s", e.StatusCode, e.Message)
}

// Is matches the sentinel errors of this package
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrTransactionNotFound:
		return e.Kind == KindTransactionNotFound
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound && e.Kind != KindTransactionNotFound
	case ErrRangeNotSatisfiable:
		return e.StatusCode == http.StatusRequestedRangeNotSatisfiable
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrTransport:
		return e.StatusCode >= 500
	case ErrUnexpectedStatusCode:
		return true
	}
	return false
}

// TransportError reports a request that never produced a response
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewServiceError builds a ServiceError from an error response. The body is
// read and closed.
func NewServiceError(resp *http.Response) *ServiceError {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	serr := &ServiceError{StatusCode: resp.StatusCode}
	var body wire.ErrorResponse
	if len(data) > 0 && json.Unmarshal(data, &body) == nil && (body.Error != "" || body.Kind != "") {
		serr.Kind = body.Kind
		serr.Message = body.Error
		if body.Message != "" {
			serr.Message = body.Message
		}
	} else {
		serr.Message = strings.TrimSpace(string(data))
	}
	if serr.Kind == "" {
		serr.Kind = KindForStatus(resp.StatusCode)
	}
	return serr
}

// KindForStatus returns the default error kind for an HTTP status
func KindForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusRequestedRangeNotSatisfiable:
		return KindRangeNotSatisfiable
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest:
		return KindBadRequest
	}
	if status >= 500 {
		return KindInternal
	}
	return ""
}
