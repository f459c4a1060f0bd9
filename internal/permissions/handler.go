package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Handler serves the permission catalogue.
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

// MountRoutes registers permission routes under the caller's prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
	r.Post("/", h.createPermission)
	r.Get("/{id}", h.showPermission)
	r.Put("/{id}", h.updatePermission)
	r.Delete("/{id}", h.deletePermission)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
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
	permission, err := h.service.Create(r.Context(), CreateInput{Name: name, Description: description})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(permission))
}

func (h *Handler) showPermission(w http.ResponseWriter, r *http.Request) {
	permission, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(permission))
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	permission, ok := h.lookup(w, r)
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
	updated, err := h.service.Update(r.Context(), permission.ID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(updated))
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	permission, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), permission.ID); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Deleted(w)
}

// lookup resolves the {id} path parameter, answering 404 for unknown or malformed ids.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Permission, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, h.logger, shared.NotFound("Permission"))
		return Permission{}, false
	}
	permission, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return Permission{}, false
	}
	return permission, true
}
