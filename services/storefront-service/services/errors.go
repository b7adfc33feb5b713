package services

import (
	"errors"
	"net/http"

	"github.com/tobaccostore/backend/services/storefront-service/providers"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *ServiceError) Error() string {
	return e.Message
}

func badRequest(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg}
}

func notFound(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Message: msg}
}

func internalError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: msg}
}

// upstreamError maps a provider error. Transport failures become a retryable
// 502 with fallback as message; business rejections become a 400 carrying
// the provider's text.
func upstreamError(err error, fallback string) *ServiceError {
	var bizErr *providers.BusinessError
	if errors.As(err, &bizErr) {
		msg := bizErr.Message
		if msg == "" {
			msg = fallback
		}
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg}
	}
	return &ServiceError{StatusCode: http.StatusBadGateway, Message: fallback, Retryable: true}
}
