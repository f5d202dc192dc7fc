package handler

import (
	"net/http"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/payload"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

type contactHTTPHandler struct {
	contactUsecase usecase.ContactUsecase
	validator      *validator.Validator
}

func newContactHTTPHandler(contactUsecase usecase.ContactUsecase, validator *validator.Validator) *contactHTTPHandler {
	return &contactHTTPHandler{contactUsecase: contactUsecase, validator: validator}
}

func (h *contactHTTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req payload.ContactRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.contactUsecase.SendMessage(r.Context(), usecase.ContactParams{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "your message has been sent")
}
