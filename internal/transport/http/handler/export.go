package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brokerage-api/internal/application/export"
	"github.com/brokerage-api/internal/transport/http/middleware"
)

// ExportHandler serves a full download of the caller's stored data.
type ExportHandler struct {
	svc export.Service
}

func NewExportHandler(svc export.Service) *ExportHandler { return &ExportHandler{svc: svc} }

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payload, err := h.svc.Export(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	filename := fmt.Sprintf("brokerage-export-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
