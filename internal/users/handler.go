package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Handler manages user endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Get("/{id}", h.showUser)
	r.Put("/{id}", h.updateUser)
	r.Delete("/{id}", h.deleteUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	payload, err := httpx.DecodeObject(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in CreateInput
	if in.Username, _, err = payload.String("username"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if in.Email, _, err = payload.String("email"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if in.IsActive, err = payload.OptionalBool("is_active"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	in.Roles = payload.Raw("roles")
	in.Permissions = payload.Raw("permissions")

	user, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(user))
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	payload, err := httpx.DecodeObject(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in UpdateInput
	if in.Username, err = payload.OptionalString("username"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if in.Email, err = payload.OptionalString("email"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if in.IsActive, err = payload.OptionalBool("is_active"); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	in.Roles = payload.Raw("roles")
	in.Permissions = payload.Raw("permissions")

	updated, err := h.service.Update(r.Context(), user.ID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(updated))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), user.ID); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Deleted(w)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (User, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, h.logger, shared.NotFound("User"))
		return User{}, false
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return User{}, false
	}
	return user, true
}
