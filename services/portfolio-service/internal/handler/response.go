package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/payload"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/auth"
	"github.com/vasapolrittideah/portfolio-api/shared/middleware"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

var (
	errMalformedBody    = errors.New("request body is not valid JSON")
	errEmptyBody        = errors.New("request body is empty")
	errBodyTooLarge     = errors.New("request body is too large")
	errRateLimited      = errors.New("too many requests, please try again later")
	errInsufficientRole = errors.New("your role does not allow this action")
	errRouteNotFound    = errors.New("route not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

const internalErrorMessage = "something went wrong"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.MessageResponse{Status: "success", Message: message})
}

// writeError converts err into the JSON error envelope. Errors that map to
// 5xx are logged and their message is hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	body := payload.ErrorResponse{Status: "fail", Message: err.Error()}
	if status >= http.StatusInternalServerError {
		body.Status = "error"
		if status == http.StatusInternalServerError {
			body.Message = internalErrorMessage
		}
		hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("request failed")
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		body.Message = "validation failed"
		body.Errors = verr.Fields
	}

	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var verr *validator.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errMalformedBody),
		errors.Is(err, errEmptyBody),
		errors.Is(err, usecase.ErrInvalidOTP),
		errors.Is(err, usecase.ErrOTPExpired),
		errors.Is(err, usecase.ErrIncorrectPassword),
		errors.Is(err, usecase.ErrPasswordUnchanged),
		errors.Is(err, usecase.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrInvalidRefreshToken),
		errors.Is(err, usecase.ErrRefreshTokenReused),
		errors.Is(err, middleware.ErrMissingToken),
		errors.Is(err, middleware.ErrRevokedToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrForbidden),
		errors.Is(err, errInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrPublicationNotFound),
		errors.Is(err, usecase.ErrProfileNotFound),
		errors.Is(err, errRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, usecase.ErrOTPAttemptsExceeded),
		errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, usecase.ErrGoogleSignInUnavailable),
		errors.Is(err, usecase.ErrContactUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON document into dst and validates it.
func decodeJSON(r *http.Request, v *validator.Validator, dst any) error {
	if err := decodeBody(r, dst); err != nil {
		return err
	}
	return v.Struct(dst)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(r *http.Request, v *validator.Validator, dst any) error {
	if err := decodeBody(r, dst); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return v.Struct(dst)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &maxBytesErr):
			return errBodyTooLarge
		default:
			return fmt.Errorf("%w: %w", errMalformedBody, err)
		}
	}

	if dec.More() {
		return errMalformedBody
	}

	return nil
}

// NotFound and MethodNotAllowed keep chi's fallbacks on the JSON envelope.
func NotFound(w http.ResponseWriter, r *http.Request) { writeError(w, r, errRouteNotFound) }

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) { writeError(w, r, errMethodNotAllowed) }
