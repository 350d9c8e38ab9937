package leavehandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/leave"
	"leavestride/internal/transport/http/api"
	"leavestride/internal/transport/http/middleware"
	"leavestride/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   *auth.Gate
}

func NewHandler(service *leave.Service, perms *auth.Gate) *Handler {
	return &Handler{Service: service, Perms: perms}
}

type submitRequest struct {
	LeaveType string `json:"leaveType" validate:"required,oneof=SICK CASUAL VACATION ACADEMIC WFH COMP_OFF"`
	From      string `json:"from" validate:"required"`
	To        string `json:"to" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

type updateRequest struct {
	Status  string `json:"status" validate:"required,oneof=APPROVED REJECTED CANCELLED"`
	Comment string `json:"comment" validate:"max=200"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveSubmit, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/calendar", h.handleCalendar)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{leaveID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeaveUpdate, h.Perms)).Patch("/{leaveID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermLeaveDelete, h.Perms)).Delete("/{leaveID}", h.handleDelete)
	})
}

func currentSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return session, ok
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	v := shared.NewValidator()
	filter := leave.ListFilter{}
	if raw := query.Get("status"); raw != "" {
		status, err := leave.ParseStatus(raw)
		if err != nil {
			v.Add("status", "must be one of PENDING, APPROVED, REJECTED, CANCELLED")
		}
		filter.Status = status
	}
	if raw := query.Get("leaveType"); raw != "" {
		leaveType, err := leave.ParseLeaveType(raw)
		if err != nil {
			v.Add("leaveType", "must be one of SICK, CASUAL, VACATION, ACADEMIC, WFH, COMP_OFF")
		}
		filter.LeaveType = leaveType
	}
	if raw := firstOf(query.Get("startDate"), query.Get("start")); raw != "" {
		filter.Start, _ = v.Date("startDate", raw)
	}
	if raw := firstOf(query.Get("endDate"), query.Get("end")); raw != "" {
		filter.End, _ = v.Date("endDate", raw)
	}
	v.DateOrder("startDate", filter.Start, "endDate", filter.End)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, shared.DefaultPageLimit, shared.MaxPageLimit)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	result, err := h.Service.List(r.Context(), session, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	items := result.Items
	if items == nil {
		items = []leave.Request{}
	}
	api.Paginated(w, items, page.Page, page.Limit, result.Total, middleware.GetRequestID(r.Context()))
}

func firstOf(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	var payload submitRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	from, _ := v.Date("from", payload.From)
	to, _ := v.Date("to", payload.To)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	leaveType, err := leave.ParseLeaveType(payload.LeaveType)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}

	created, err := h.Service.Submit(r.Context(), session, leave.SubmitInput{
		LeaveType: leaveType,
		From:      from,
		To:        to,
		Reason:    payload.Reason,
	})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	item, err := h.Service.Get(r.Context(), session, chi.URLParam(r, "leaveID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	var payload updateRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	status, err := leave.ParseStatus(payload.Status)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	updated, err := h.Service.Transition(r.Context(), session, chi.URLParam(r, "leaveID"), leave.TransitionInput{
		Status:  status,
		Comment: payload.Comment,
	})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.Service.SoftDelete(r.Context(), session, chi.URLParam(r, "leaveID")); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Message(w, "Leave request deleted", middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	view, err := h.Service.TeamCalendar(r.Context(), session, from, to)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}
