package handler

import (
	"net/http"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/payload"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/middleware"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

type profileHTTPHandler struct {
	profileUsecase usecase.ProfileUsecase
	validator      *validator.Validator
}

func newProfileHTTPHandler(profileUsecase usecase.ProfileUsecase, validator *validator.Validator) *profileHTTPHandler {
	return &profileHTTPHandler{profileUsecase: profileUsecase, validator: validator}
}

func (h *profileHTTPHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, middleware.ErrMissingToken)
		return
	}

	user, err := h.profileUsecase.GetMe(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.UserResponse{User: user})
}

func (h *profileHTTPHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, middleware.ErrMissingToken)
		return
	}

	var req payload.UpdateProfileRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.profileUsecase.UpdateMe(r.Context(), claims.UserID, toUpdateProfileParams(req))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.UserResponse{User: user})
}

func (h *profileHTTPHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileUsecase.GetPublicProfile(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func toUpdateProfileParams(req payload.UpdateProfileRequest) usecase.UpdateProfileParams {
	params := usecase.UpdateProfileParams{
		Email:       req.Email,
		Name:        req.Name,
		Headline:    req.Headline,
		Bio:         req.Bio,
		Affiliation: req.Affiliation,
		Location:    req.Location,
		AvatarURL:   req.AvatarURL,
		CVURL:       req.CVURL,
		Skills:      req.Skills,
	}

	if req.Education != nil {
		education := convertAll(*req.Education, payload.EducationInput.ToModel)
		params.Education = &education
	}
	if req.Experience != nil {
		experience := convertAll(*req.Experience, payload.ExperienceInput.ToModel)
		params.Experience = &experience
	}
	if req.Certificates != nil {
		certificates := convertAll(*req.Certificates, payload.CertificateInput.ToModel)
		params.Certificates = &certificates
	}
	if req.Links != nil {
		links := req.Links.ToModel()
		params.Links = &links
	}

	return params
}

func convertAll[In any, Out any](in []In, convert func(In) Out) []Out {
	out := make([]Out, 0, len(in))
	for _, v := range in {
		out = append(out, convert(v))
	}
	return out
}
