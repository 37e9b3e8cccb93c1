package httpadapter

import (
	"net/http"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNoDocument):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrUnsupportedFormat),
		domain.IsKind(err, domain.ErrEmptyContent),
		domain.IsKind(err, domain.ErrDecodeFailure):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrMalformedResponse),
		domain.IsKind(err, domain.ErrModelFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
