// Package controller renders service results and errors as HTTP responses.
package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

// Message codes for failures raised at the HTTP boundary itself.
const (
	MessageValidationFailed = "validation.failed"
	MessageUnauthorized     = "auth.unauthorized"
)

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    int    `json:"errorCode"`
	Code         string `json:"code"`
	RequestID    string `json:"request_id,omitempty"`
}

// MapError maps an error to a status and body. Input rejected by a service
// becomes a 400; other unclassified errors become a generic 500 without detail.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	requestID := logger.RequestIDFromContext(ctx)

	if errors.Is(err, model.ErrPasswordTooLong) {
		return http.StatusBadRequest, boundaryError(ctx, http.StatusBadRequest, MessageValidationFailed, err.Error())
	}

	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError, ErrorResponse{
			ErrorMessage: "an unexpected error occurred",
			ErrorCode:    apperror.CodeInternalServerError,
			Code:         apperror.MessageInternal,
			RequestID:    requestID,
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := appErr.Message
	if appErr.Kind == apperror.KindInternalServerError || message == "" {
		message = "an unexpected error occurred"
	}
	code := appErr.Code
	if code == 0 {
		code = status
	}

	return status, ErrorResponse{
		ErrorMessage: message,
		ErrorCode:    code,
		Code:         appErr.MessageKey,
		RequestID:    requestID,
	}
}

// boundaryError builds a body for failures that never reach a service.
func boundaryError(ctx context.Context, status int, code, message string) ErrorResponse {
	return ErrorResponse{
		ErrorMessage: message,
		ErrorCode:    status,
		Code:         code,
		RequestID:    logger.RequestIDFromContext(ctx),
	}
}
