package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const healthCheckTimeout = 2 * time.Second

// MongoPinger is satisfied by *mongo.Client.
type MongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// CachePinger is satisfied by *cache.Client.
type CachePinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

type healthHTTPHandler struct {
	mongo MongoPinger
	cache CachePinger
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Serve reports 503 when MongoDB is unreachable. The cache is informational:
// the service degrades to uncached reads without it.
func (h *healthHTTPHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "connected"}

	if h.cache != nil && h.cache.Enabled() {
		resp.Cache = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("health-check: redis ping failed")
			resp.Cache = "disconnected"
		}
	}

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("health-check: mongo ping failed")
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "database unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
