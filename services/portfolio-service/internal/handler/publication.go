package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/payload"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/middleware"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

type publicationHTTPHandler struct {
	publicationUsecase usecase.PublicationUsecase
	validator          *validator.Validator
}

func newPublicationHTTPHandler(
	publicationUsecase usecase.PublicationUsecase,
	validator *validator.Validator,
) *publicationHTTPHandler {
	return &publicationHTTPHandler{publicationUsecase: publicationUsecase, validator: validator}
}

func (h *publicationHTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Struct(query); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.publicationUsecase.ListPublications(r.Context(), toListParams(query))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.PublicationListResponse{
		Items: page.Items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (h *publicationHTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	publication, err := h.publicationUsecase.GetPublication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.PublicationResponse{Publication: publication})
}

func (h *publicationHTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.publicationUsecase.GetPublicationStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *publicationHTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, r, middleware.ErrMissingToken)
		return
	}

	var req payload.CreatePublicationRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	publication, err := h.publicationUsecase.CreatePublication(r.Context(), actor, usecase.CreatePublicationParams{
		Title:     req.Title,
		Authors:   req.Authors,
		Type:      model.PublicationType(req.Type),
		Year:      req.Year,
		Venue:     req.Venue,
		Tags:      req.Tags,
		Citations: req.Citations,
		DOI:       req.DOI,
		URL:       req.URL,
		Abstract:  req.Abstract,
		Featured:  req.Featured,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.PublicationResponse{Publication: publication})
}

func (h *publicationHTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, r, middleware.ErrMissingToken)
		return
	}

	var req payload.UpdatePublicationRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	params := usecase.UpdatePublicationParams{
		Title:     req.Title,
		Authors:   req.Authors,
		Year:      req.Year,
		Venue:     req.Venue,
		Tags:      req.Tags,
		Citations: req.Citations,
		DOI:       req.DOI,
		URL:       req.URL,
		Abstract:  req.Abstract,
		Featured:  req.Featured,
	}
	if req.Type != nil {
		t := model.PublicationType(*req.Type)
		params.Type = &t
	}

	publication, err := h.publicationUsecase.UpdatePublication(r.Context(), actor, chi.URLParam(r, "id"), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.PublicationResponse{Publication: publication})
}

func (h *publicationHTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, r, middleware.ErrMissingToken)
		return
	}

	if err := h.publicationUsecase.DeletePublication(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "publication deleted")
}

func actorFromRequest(r *http.Request) (usecase.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return usecase.Actor{}, false
	}
	return usecase.Actor{UserID: claims.UserID, Role: model.Role(claims.Role)}, true
}

func parseListQuery(values url.Values) (payload.ListPublicationsQuery, error) {
	query := payload.ListPublicationsQuery{
		Type:  strings.TrimSpace(values.Get("type")),
		Tag:   strings.TrimSpace(values.Get("tag")),
		Query: strings.TrimSpace(values.Get("q")),
		Sort:  strings.TrimSpace(values.Get("sort")),
		Order: strings.ToLower(strings.TrimSpace(values.Get("order"))),
	}

	invalid := map[string]string{}
	parseInt := func(name string, dst *int) {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalid[name] = name + " must be a number"
			return
		}
		*dst = n
	}

	parseInt("year", &query.Year)
	parseInt("page", &query.Page)
	parseInt("limit", &query.Limit)

	if raw := strings.TrimSpace(values.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			invalid["featured"] = "featured must be true or false"
		} else {
			query.Featured = &featured
		}
	}

	if len(invalid) > 0 {
		return query, &validator.ValidationError{Fields: invalid}
	}

	return query, nil
}

func toListParams(q payload.ListPublicationsQuery) usecase.ListPublicationsParams {
	params := usecase.ListPublicationsParams{
		Featured: q.Featured,
		Page:     q.Page,
		Limit:    q.Limit,
		SortDesc: q.Order == "desc" || (q.Order == "" && q.Sort != "title"),
	}
	if q.Type != "" {
		t := model.PublicationType(q.Type)
		params.Type = &t
	}
	if q.Year != 0 {
		params.Year = &q.Year
	}
	if q.Tag != "" {
		params.Tag = &q.Tag
	}
	if q.Query != "" {
		params.Query = &q.Query
	}
	if q.Sort != "" {
		params.SortBy = &q.Sort
	}
	return params
}
