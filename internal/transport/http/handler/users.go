package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-user-directory/internal/application/user"
	"github.com/go-user-directory/internal/domain"
)

// UserHandler handles user CRUD and listing endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage, sort := parseListQuery(r, 0)
	result, err := h.svc.List(r.Context(), page, perPage, sort)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "missing email address")
		return
	}
	u, err := h.svc.GetByEmail(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the listing as a CSV attachment. With no explicit per_page
// the whole directory is exported in one window.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	page, perPage, sort := parseListQuery(r, math.MaxInt32)

	// Buffered so a mid-export failure can still produce an error status.
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(r.Context(), &buf, page, perPage, sort); err != nil {
		writeDomainError(w, err)
		return
	}
	filename := fmt.Sprintf("users-%s.csv", time.Now().UTC().Format("2006-01-02T15-04-05"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to stream csv export", "err", err)
	}
}

// parseListQuery reads page/per_page/sort, accepting the underscore-prefixed
// aliases (_page, _per_page, _sort) used by older clients. defaultPerPage of 0
// defers the per-page default to the pagination engine.
func parseListQuery(r *http.Request, defaultPerPage int) (page, perPage int, sort string) {
	q := r.URL.Query()
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := q.Get(k); v != "" {
				return v
			}
		}
		return ""
	}
	page, _ = strconv.Atoi(first("page", "_page"))
	perPage, _ = strconv.Atoi(first("per_page", "_per_page"))
	if perPage == 0 {
		perPage = defaultPerPage
	}
	sort = first("sort", "_sort")
	return page, perPage, sort
}
