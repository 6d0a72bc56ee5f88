package handler

import (
	"net/http"
	"strconv"

	"github.com/brokerage-api/internal/application/activity"
	"github.com/brokerage-api/internal/transport/http/middleware"
)

// ActivityHandler serves the caller's activity feed.
type ActivityHandler struct {
	svc activity.Service
}

func NewActivityHandler(svc activity.Service) *ActivityHandler { return &ActivityHandler{svc: svc} }

func (h *ActivityHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := int64(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			limit = n
		}
	}
	items, err := h.svc.ListForUser(r.Context(), claims.UserID, int32(limit))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: items})
}
