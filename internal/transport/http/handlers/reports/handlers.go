package reportshandler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/reports"
	"leavestride/internal/transport/http/api"
	"leavestride/internal/transport/http/middleware"
	"leavestride/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionChecker
}

func NewHandler(service *reports.Service, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermDashboardRead, h.Perms)).Get("/admin/dashboard", h.handleDashboard)
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportExport, h.Perms))
		r.Get("/leaves", h.handleLeaveReport)
		r.Get("/balances", h.handleBalanceReport)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Dashboard(r.Context())
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLeaveReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := shared.NewValidator()
	format, err := reports.ParseFormat(query.Get("format"))
	if err != nil {
		v.Add("format", "must be one of csv, pdf, xlsx")
	}
	filter := reports.LeaveFilter{}
	if raw := query.Get("status"); raw != "" {
		status, err := leave.ParseStatus(raw)
		if err != nil {
			v.Add("status", "must be one of PENDING, APPROVED, REJECTED, CANCELLED")
		}
		filter.Status = status
	}
	if raw := query.Get("start"); raw != "" {
		filter.Start, _ = v.Date("start", raw)
	}
	if raw := query.Get("end"); raw != "" {
		filter.End, _ = v.Date("end", raw)
	}
	v.DateOrder("start", filter.Start, "end", filter.End)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	table, err := h.Service.LeaveRows(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.export(w, r, format, table)
}

func (h *Handler) handleBalanceReport(w http.ResponseWriter, r *http.Request) {
	format, err := reports.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	table, err := h.Service.BalanceRows(r.Context())
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.export(w, r, format, table)
}

// export renders fully before writing so a render failure still yields a JSON error.
func (h *Handler) export(w http.ResponseWriter, r *http.Request, format reports.Format, table reports.Table) {
	var buf bytes.Buffer
	if err := reports.Write(&buf, format, table); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+table.Filename(format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("report write failed", "report", table.Name, "format", format, "err", err)
	}
}
