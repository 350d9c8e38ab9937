package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/users"
	"leavestride/internal/transport/http/api"
	"leavestride/internal/transport/http/middleware"
	"leavestride/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Users   *users.Service
}

func NewHandler(service *auth.Service, directory *users.Service) *Handler {
	return &Handler{Service: service, Users: directory}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	FirstName  string `json:"firstName" validate:"required,max=50"`
	LastName   string `json:"lastName" validate:"required,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Department string `json:"department" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// RegisterPublicRoutes mounts the endpoints reachable without a session.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/request-reset", h.HandleRequestReset)
	r.Post("/auth/reset", h.HandleResetPassword)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	tokens, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, tokens, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	tokens, err := h.Service.Register(r.Context(), users.RegisterInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Password:   payload.Password,
		Department: payload.Department,
	})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Created(w, tokens, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	tokens, err := h.Service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, tokens, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	if err := h.Service.RequestReset(r.Context(), payload.Email); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Message(w, "If the account exists, a reset link has been sent", middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	if err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Message(w, "Password updated", middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Logout(r.Context(), session); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Message(w, "Logged out", middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	u, err := h.Users.Me(r.Context(), session.UserID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, u, middleware.GetRequestID(r.Context()))
}
