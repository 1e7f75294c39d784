package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/identity"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

type ClickHandler struct {
	service ports.ClickService
}

func NewClickHandler(service ports.ClickService) *ClickHandler {
	return &ClickHandler{service: service}
}

// Redirect records the click and sends the visitor to the link target.
// Nothing is recorded, and no redirect happens, when ingestion fails.
func (h *ClickHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Ingest(r.Context(), clickRequest(r, id))
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, result.TargetURL, http.StatusFound)
}

// Track records a click without redirecting.
func (h *ClickHandler) Track(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("link")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("invalid link %q: %w", raw, domain.ErrInvalidInput))
		return
	}

	if _, err := h.service.Ingest(r.Context(), clickRequest(r, id)); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func clickRequest(r *http.Request, linkID int64) domain.ClickRequest {
	return domain.ClickRequest{
		LinkID:    linkID,
		UserKey:   r.FormValue("user"),
		IP:        identity.ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr),
		UserAgent: r.UserAgent(),
	}
}
