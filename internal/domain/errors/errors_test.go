package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Constructors(t *testing.T) {
	notFound := NotFound("missing")
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, ErrNotFound.Error(), notFound.Error())

	conflict := Conflict("exists")
	assert.Equal(t, http.StatusConflict, conflict.Status)
	assert.Equal(t, CodeConflict, conflict.Code)
	assert.ErrorIs(t, conflict, ErrAlreadyExists)

	badReq := BadRequest("bad request")
	assert.Equal(t, http.StatusBadRequest, badReq.Status)
	assert.Equal(t, CodeInvalidInput, badReq.Code)

	unproc := Unprocessable("no funds", ErrInsufficientFunds)
	assert.Equal(t, http.StatusUnprocessableEntity, unproc.Status)
	assert.ErrorIs(t, unproc, ErrInsufficientFunds)

	internal := InternalError(stderrors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Equal(t, CodeInternalError, internal.Code)
}

func TestAppError_MessageFallback(t *testing.T) {
	err := &AppError{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: "just a message"}
	assert.Equal(t, "just a message", err.Error())
	assert.Nil(t, stderrors.Unwrap(err))
}
