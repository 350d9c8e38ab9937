package holidayhandler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leavestride/internal/domain/audit"
	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/holidays"
	"leavestride/internal/transport/http/api"
	"leavestride/internal/transport/http/middleware"
	"leavestride/internal/transport/http/shared"
)

type Handler struct {
	Service *holidays.Service
	Perms   middleware.PermissionChecker
	Audit   *audit.Service
	// Location resolves the default import year.
	Location *time.Location
}

func NewHandler(service *holidays.Service, perms middleware.PermissionChecker, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Location: time.UTC}
}

type createRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Date        string `json:"date" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=NATIONAL REGIONAL COMPANY"`
	Description string `json:"description" validate:"max=300"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holidays", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermHolidayRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermHolidayManage, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermHolidayManage, h.Perms)).Post("/import", h.handleImport)
		r.With(middleware.RequirePermission(auth.PermHolidayManage, h.Perms)).Delete("/{holidayID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	year, ok := shared.ParseYear(r.URL.Query().Get("year"))
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit year"}})
		return
	}
	list, err := h.Service.List(r.Context(), year)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []holidays.Holiday{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	var payload createRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	category, err := holidays.ParseCategory(payload.Type)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}

	created, err := h.Service.Create(r.Context(), session.UserID, holidays.CreateInput{
		Name:        payload.Name,
		Date:        date,
		Category:    category,
		Description: payload.Description,
	})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.record(r, audit.ActionHolidayCreate, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	query := r.URL.Query()
	region := strings.ToUpper(strings.TrimSpace(query.Get("region")))
	v := shared.NewValidator()
	v.Required("region", region, "is required")
	v.Enum("region", region, holidays.Regions(), "must be one of "+strings.Join(holidays.Regions(), ", "))
	year := time.Now().In(h.location()).Year()
	if raw := strings.TrimSpace(query.Get("year")); raw != "" {
		parsed, ok := shared.ParseYear(raw)
		if !ok || parsed == nil {
			v.Add("year", "must be a four digit year")
		} else {
			year = *parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.ImportNational(r.Context(), session.UserID, region, year)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	if created == nil {
		created = []holidays.Holiday{}
	}
	h.record(r, audit.ActionHolidayImport, region+"-"+strconv.Itoa(year), nil, map[string]any{"created": len(created)})
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Service.Delete(r.Context(), chi.URLParam(r, "holidayID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.record(r, audit.ActionHolidayDelete, removed.ID, removed, nil)
	api.Message(w, "Holiday deleted", middleware.GetRequestID(r.Context()))
}

func (h *Handler) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	session, _ := middleware.GetSession(r.Context())
	h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.UserID,
		Action:     action,
		EntityType: audit.EntityHoliday,
		EntityID:   entityID,
		Before:     before,
		After:      after,
	})
}
