package userhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"leavestride/internal/domain/audit"
	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/navigation"
	"leavestride/internal/domain/users"
	"leavestride/internal/transport/http/api"
	"leavestride/internal/transport/http/middleware"
	"leavestride/internal/transport/http/shared"
)

type Handler struct {
	Service *users.Service
	Perms   middleware.PermissionChecker
	Audit   *audit.Service
}

func NewHandler(service *users.Service, perms middleware.PermissionChecker, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

type balancesRequest struct {
	Sick     int `json:"sick" validate:"gte=0"`
	Casual   int `json:"casual" validate:"gte=0"`
	Vacation int `json:"vacation" validate:"gte=0"`
	Academic int `json:"academic" validate:"gte=0"`
}

func (b *balancesRequest) toDomain() *users.Balances {
	if b == nil {
		return nil
	}
	return &users.Balances{Sick: b.Sick, Casual: b.Casual, Vacation: b.Vacation, Academic: b.Academic}
}

type createRequest struct {
	FirstName     string           `json:"firstName" validate:"required,max=50"`
	LastName      string           `json:"lastName" validate:"required,max=50"`
	Email         string           `json:"email" validate:"required,email"`
	Password      string           `json:"password" validate:"omitempty,min=6"`
	Role          string           `json:"role" validate:"omitempty,oneof=EMPLOYEE MANAGER ADMIN"`
	Department    string           `json:"department" validate:"required,max=100"`
	ManagerID     string           `json:"managerId"`
	LeaveBalances *balancesRequest `json:"leaveBalances"`
}

type updateRequest struct {
	FirstName     *string          `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName      *string          `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email         *string          `json:"email" validate:"omitempty,email"`
	Role          *string          `json:"role" validate:"omitempty,oneof=EMPLOYEE MANAGER ADMIN"`
	Department    *string          `json:"department" validate:"omitempty,min=1,max=100"`
	ManagerID     *string          `json:"managerId"`
	LeaveBalances *balancesRequest `json:"leaveBalances"`
	IsActive      *bool            `json:"isActive"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermProfileRead, h.Perms)).Get("/me", h.handleMe)
		r.With(middleware.RequirePermission(auth.PermProfileRead, h.Perms)).Get("/me/menu", h.handleMenu)
		r.With(middleware.RequirePermission(auth.PermUserManagers, h.Perms)).Get("/managers", h.handleManagers)

		r.With(middleware.RequirePermission(auth.PermUserRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermUserRead, h.Perms)).Get("/{userID}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermUserManage, h.Perms))
			r.Post("/", h.handleCreate)
			r.Put("/{userID}", h.handleUpdate)
			r.Put("/{userID}/password", h.handleSetPassword)
			r.Put("/{userID}/activate", h.handleSetActive(true))
			r.Put("/{userID}/deactivate", h.handleSetActive(false))
			r.Delete("/{userID}", h.handleDelete)
		})
	})
}

func actorFrom(r *http.Request) users.Actor {
	session, _ := middleware.GetSession(r.Context())
	return session.Actor()
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context(), actorFrom(r).ID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	api.Success(w, navigation.MenuFor(actorFrom(r).Role), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.Service.Managers(r.Context())
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	out := make([]users.Summary, 0, len(managers))
	for _, m := range managers {
		out = append(out, m.Summary())
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := shared.NewValidator()
	filter := users.ListFilter{
		Search:     query.Get("search"),
		Department: strings.TrimSpace(query.Get("department")),
	}
	if raw := query.Get("role"); raw != "" {
		role, err := users.ParseRole(raw)
		if err != nil {
			v.Add("role", "must be one of EMPLOYEE, MANAGER, ADMIN")
		}
		filter.Role = role
	}
	if raw := strings.ToLower(strings.TrimSpace(query.Get("status"))); raw != "" {
		v.Enum("status", raw, []string{string(users.StatusActive), string(users.StatusInactive), string(users.StatusAll)}, "must be one of active, inactive, all")
		filter.Status = users.StatusFilter(raw)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, shared.DefaultPageLimit, shared.MaxPageLimit)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	result, err := h.Service.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	items := result.Items
	if items == nil {
		items = []users.User{}
	}
	api.Paginated(w, items, page.Page, page.Limit, result.Total, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	in := users.CreateInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Password:   payload.Password,
		Department: payload.Department,
		ManagerID:  payload.ManagerID,
		Balances:   payload.LeaveBalances.toDomain(),
	}
	if payload.Role != "" {
		role, err := users.ParseRole(payload.Role)
		if err != nil {
			shared.WriteError(w, r, err)
			return
		}
		in.Role = role
	}

	created, _, err := h.Service.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.record(r, audit.ActionUserCreate, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload updateRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	in := users.UpdateInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Department: payload.Department,
		ManagerID:  payload.ManagerID,
		Balances:   payload.LeaveBalances.toDomain(),
		IsActive:   payload.IsActive,
	}
	if payload.Role != nil {
		role, err := users.ParseRole(*payload.Role)
		if err != nil {
			shared.WriteError(w, r, err)
			return
		}
		in.Role = &role
	}

	before, after, err := h.Service.Update(r.Context(), actorFrom(r), chi.URLParam(r, "userID"), in)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.record(r, audit.ActionUserUpdate, after.ID, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var payload passwordRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	id := chi.URLParam(r, "userID")
	if err := h.Service.SetPassword(r.Context(), actorFrom(r), id, payload.Password); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.record(r, audit.ActionUserPassword, id, nil, nil)
	api.Message(w, "Password updated", middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	action, message := audit.ActionUserDeactivate, "User deactivated"
	if active {
		action, message = audit.ActionUserActivate, "User activated"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.Service.SetActive(r.Context(), actorFrom(r), chi.URLParam(r, "userID"), active)
		if err != nil {
			shared.WriteError(w, r, err)
			return
		}
		h.record(r, action, u.ID, map[string]bool{"isActive": !active}, map[string]bool{"isActive": active})
		api.WriteJSON(w, http.StatusOK, api.Envelope{
			Success:   true,
			Data:      u,
			Message:   message,
			RequestID: middleware.GetRequestID(r.Context()),
		})
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.record(r, audit.ActionUserDelete, removed.ID, removed, nil)
	api.Message(w, "User deleted", middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    actorFrom(r).ID,
		Action:     action,
		EntityType: audit.EntityUser,
		EntityID:   entityID,
		Before:     before,
		After:      after,
	})
}
