package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	pagination shared.PaginationConfig
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pagination shared.PaginationConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pagination: pagination}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Get("/{id}", h.showRole)
	r.Put("/{id}", h.updateRole)
	r.Delete("/{id}", h.deleteRole)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	window, err := shared.ParseWindow(r.URL.Query(), h.pagination)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	items, total, err := h.service.List(r.Context(), window)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(total, window, toResponses(items)))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	payload, err := httpx.DecodeObject(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	name, _, err := payload.String("name")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	description, _, err := payload.String("description")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	role, err := h.service.Create(r.Context(), CreateInput{Name: name, Description: description})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(role))
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.lookup(w, r)
	if !ok {
		return
	}
	payload, err := httpx.DecodeObject(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in UpdateInput
	if in.Name, err = payload.OptionalString("name"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if in.Description, err = payload.OptionalString("description"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	updated, err := h.service.Update(r.Context(), role.ID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(updated))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), role.ID); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Deleted(w)
}

// lookup resolves the {id} path parameter, answering 404 for unknown or malformed ids.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Role, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, h.logger, shared.NotFound("Role"))
		return Role{}, false
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return Role{}, false
	}
	return role, true
}
