package reports

import (
	"strings"
	"time"

	"leavestride/internal/domain/leave"
	"leavestride/internal/platform/apperr"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat defaults to CSV.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	}
	return "", apperr.Validation("invalid_format", "format must be one of csv, pdf, xlsx")
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

type Dashboard struct {
	TotalEmployees     int `json:"totalEmployees"`
	PendingApprovals   int `json:"pendingApprovals"`
	TotalLeaveRequests int `json:"totalLeaveRequests"`
	ApprovedThisMonth  int `json:"approvedThisMonth"`
	RejectedThisMonth  int `json:"rejectedThisMonth"`
}

type LeaveFilter struct {
	Status leave.Status
	Start  time.Time
	End    time.Time
}

// Table is a format-agnostic report: a title, a header row and string cells.
type Table struct {
	Name   string
	Title  string
	Header []string
	Rows   [][]string
}

func (t Table) Filename(f Format) string {
	return t.Name + "." + string(f)
}
