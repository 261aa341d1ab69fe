package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	domainerrors "atomik.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response, mapping domain errors to HTTP statuses
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = fromDomainError(err)
	}
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func fromDomainError(err error) *domainerrors.AppError {
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound(err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		return domainerrors.Conflict(err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput), errors.Is(err, domainerrors.ErrSameAccount):
		return domainerrors.BadRequest(err.Error())
	case errors.Is(err, domainerrors.ErrInsufficientFunds):
		return domainerrors.Unprocessable(err.Error(), err)
	default:
		return domainerrors.InternalError(err)
	}
}
