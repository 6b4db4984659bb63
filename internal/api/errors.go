package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/service/auth"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
	"github.com/phrazzld/scry-engine/internal/service/tutor"
	"github.com/phrazzld/scry-engine/internal/store"
)

const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case err == nil:
		return http.StatusOK

	// Authentication
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Authorization
	case errors.Is(err, store.ErrCardNotOwned),
		errors.Is(err, store.ErrSessionNotOwned),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflicts
	case errors.Is(err, card_review.ErrConcurrentUpdate),
		errors.Is(err, card_review.ErrSessionNotApprovable),
		errors.Is(err, store.ErrStatusConflict),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict

	// Bad requests
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, card_review.ErrNoCardsSelected),
		errors.Is(err, tutor.ErrEmptyQuestion),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &verrs):
		return http.StatusBadRequest

	// Generative model
	case errors.Is(err, generation.ErrQuotaExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUnparseableOutput),
		errors.Is(err, domain.ErrUpstreamGeneration):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// messages are built from the input alone and are returned as-is; nothing
// else about the error reaches the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		if ve.Message == "" {
			return fmt.Sprintf("Invalid request (%s)", ve.Code)
		}
		return fmt.Sprintf("Invalid request (%s): %s", ve.Code, ve.Message)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return SanitizeValidationError(err)
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, store.ErrCardNotOwned):
		return "You do not own this card"
	case errors.Is(err, store.ErrSessionNotOwned):
		return "You do not own this generation session"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Operation not permitted"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Generation session not found"
	case errors.Is(err, store.ErrCandidateNotFound):
		return "Candidate card not found in this session"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, card_review.ErrConcurrentUpdate):
		return "Card was updated concurrently, try again"
	case errors.Is(err, card_review.ErrSessionNotApprovable),
		errors.Is(err, store.ErrStatusConflict),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return "Generation session cannot be approved in its current state"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, card_review.ErrNoCardsSelected):
		return "No cards selected for approval"
	case errors.Is(err, tutor.ErrEmptyQuestion):
		return "Question cannot be empty"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.Is(err, generation.ErrQuotaExceeded):
		return "Generation capacity exceeded, try again later"
	case errors.Is(err, domain.ErrUnparseableOutput):
		return "The model returned flashcards in an unreadable format"
	case errors.Is(err, domain.ErrUpstreamGeneration):
		return "Flashcard generation failed upstream"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"

	default:
		return genericErrorMessage
	}
}

// SanitizeValidationError describes the first failed field of a struct
// validation error without echoing the submitted value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid ID"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the mapped status and safe message for err and
// logs the redacted details. defaultMsg replaces the generic message for
// unclassified errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		msg = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
