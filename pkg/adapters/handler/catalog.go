package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

// CatalogHandler serves projects, members and links.
type CatalogHandler struct {
	projects ports.ProjectService
	members  ports.MemberService
	links    ports.LinkService
}

func NewCatalogHandler(projects ports.ProjectService, members ports.MemberService, links ports.LinkService) *CatalogHandler {
	return &CatalogHandler{projects: projects, members: members, links: links}
}

type createProjectRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	DateFrom string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

type addMemberRequest struct {
	MemberID int64 `json:"member_id" validate:"required,gt=0"`
}

type createLinkRequest struct {
	OwnerID   int64  `json:"owner_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=200"`
	TargetURL string `json:"target_url" validate:"required,http_url"`
}

type createMemberRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsEditor bool   `json:"is_editor"`
}

func (h *CatalogHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	dateFrom, err := parseDate(req.DateFrom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dateTo, err := parseDate(req.DateTo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.projects.CreateProject(r.Context(), ActorFrom(r.Context()), req.Name, dateFrom, dateTo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *CatalogHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": projects})
}

func (h *CatalogHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *CatalogHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.projects.DeleteProject(r.Context(), ActorFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.projects.AddMember(r.Context(), ActorFrom(r.Context()), projectID, req.MemberID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.links.CreateLink(r.Context(), ActorFrom(r.Context()), projectID, req.OwnerID, req.Name, req.TargetURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *CatalogHandler) OwnerLinks(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ownerID, err := pathID(r, "ownerID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	links, err := h.links.ListLinksByOwner(r.Context(), projectID, ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": links})
}

func (h *CatalogHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	member, created, err := h.members.CreateMember(r.Context(), ActorFrom(r.Context()), req.Name, req.IsEditor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"member":  member,
		"created": created,
	})
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, domain.ErrInvalidInput)
	}
	return &t, nil
}
