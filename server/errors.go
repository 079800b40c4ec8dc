package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/gin-gonic/gin"
)

var errRangeNotSatisfiable = errors.New("requested range not satisfiable")

// requestError is a client mistake reported with 400
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

// notFoundError names a missing server resource other than a document
type notFoundError struct {
	what string
	name string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.what, e.name)
}

func badRequest(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

// fail writes the error response matching err
func fail(ctx *gin.Context, err error) {
	var (
		reqErr      *requestError
		notFoundErr *notFoundError
	)
	switch {
	case errors.As(err, &reqErr):
		abort(ctx, http.StatusBadRequest, wire.ErrorKindBadRequest, err)
	case errors.Is(err, ErrTransactionNotFound):
		abort(ctx, http.StatusNotFound, wire.ErrorKindTransactionNotFound, err)
	case errors.Is(err, store.ErrNotFound), errors.As(err, &notFoundErr):
		abort(ctx, http.StatusNotFound, wire.ErrorKindNotFound, err)
	case errors.Is(err, errRangeNotSatisfiable):
		abort(ctx, http.StatusRequestedRangeNotSatisfiable, wire.ErrorKindRangeNotSatisfiable, err)
	default:
		ctx.Error(err)
		abort(ctx, http.StatusInternalServerError, wire.ErrorKindInternal, err)
	}
}

func abort(ctx *gin.Context, status int, kind string, err error) {
	if status < http.StatusInternalServerError {
		slogger.Ctx(ctx.Request.Context()).Debug("request rejected", "kind", kind, "error", err)
	}
	ctx.AbortWithStatusJSON(status, wire.ErrorResponse{Error: err.Error(), Kind: kind})
}
