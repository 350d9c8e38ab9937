package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/platform/apperr"
	"leavestride/internal/requestctx"
	"leavestride/internal/transport/http/api"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var env api.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type payload struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Kind  string `json:"kind" validate:"omitempty,oneof=A B"`
	Days  int    `json:"days" validate:"gte=0"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantCode   string
	}{
		{name: "valid", body: `{"name":"ok","kind":"A"}`, wantOK: true},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantCode: "invalid_payload"},
		{name: "malformed", body: `{"name":`, wantStatus: http.StatusBadRequest, wantCode: "invalid_payload"},
		{name: "wrong type", body: `{"name":"ok","days":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "tag failure", body: `{"name":"toolong","kind":"C"}`, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			var dst payload
			ok := Decode(rec, req, &dst)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantCode, env.Error.Code)
		})
	}
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	issues := Validate(&payload{Name: "", Email: "nope", Kind: "Z", Days: -1})
	assert.Equal(t, []ValidationIssue{
		{Field: "days", Reason: "must be greater than or equal to 0"},
		{Field: "email", Reason: "must be a valid email"},
		{Field: "kind", Reason: "must be one of A, B"},
		{Field: "name", Reason: "is required"},
	}, issues)
}

func TestValidatorHelpers(t *testing.T) {
	v := NewValidator()
	v.Required("reason", "  ", "is required")
	v.Enum("status", "approved", []string{"APPROVED", "REJECTED"}, "is invalid")
	v.Enum("type", "", []string{"A"}, "is invalid")
	v.Enum("format", "docx", []string{"csv"}, "is invalid")
	from, ok := v.Date("from", "2026-03-10")
	require.True(t, ok)
	to, ok := v.Date("to", "2026-03-09")
	require.True(t, ok)
	_, ok = v.Date("when", "soon")
	assert.False(t, ok)
	v.DateOrder("from", from, "to", to)

	fields := map[string]bool{}
	for _, issue := range v.Issues() {
		fields[issue.Field] = true
	}
	assert.Equal(t, map[string]bool{"reason": true, "format": true, "when": true, "from": true, "to": true}, fields)

	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "req-1"))
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "req-1", env.RequestID)
	assert.False(t, NewValidator().Reject(httptest.NewRecorder(), ""))
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Page: 1, Limit: 10, Offset: 0}},
		{"page=3&limit=20", Pagination{Page: 3, Limit: 20, Offset: 40}},
		{"page=0&limit=-5", Pagination{Page: 1, Limit: 10, Offset: 0}},
		{"page=abc&limit=500", Pagination{Page: 1, Limit: 100, Offset: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			assert.Equal(t, tc.want, ParsePagination(req, DefaultPageLimit, MaxPageLimit))
		})
	}
}

func TestParseYearAndDate(t *testing.T) {
	year, ok := ParseYear("2026")
	require.True(t, ok)
	assert.Equal(t, 2026, *year)

	year, ok = ParseYear("")
	assert.True(t, ok)
	assert.Nil(t, year)

	_, ok = ParseYear("26")
	assert.False(t, ok)

	d, err := ParseDate("2026-03-02T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())
	_, err = ParseDate("03/02/2026")
	assert.Error(t, err)
}

func TestWriteErrorMapping(t *testing.T) {
	ExposeInternalErrors(false)
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{apperr.Validation("bad_input", "bad"), http.StatusBadRequest, "bad_input"},
		{apperr.Conflict("overlap", "overlap"), http.StatusBadRequest, "overlap"},
		{apperr.New(apperr.KindRule, "insufficient_balance", "no"), http.StatusBadRequest, "insufficient_balance"},
		{apperr.New(apperr.KindUnauthenticated, "invalid_token", "no"), http.StatusUnauthorized, "invalid_token"},
		{apperr.Forbidden("forbidden", "no"), http.StatusForbidden, "forbidden"},
		{apperr.NotFound("leave_not_found", "missing"), http.StatusNotFound, "leave_not_found"},
		{errors.New("db exploded"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		t.Run(tc.wantCode, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(requestctx.WithRequestID(req.Context(), "rid"))
			rec := httptest.NewRecorder()
			WriteError(rec, req, tc.err)
			assert.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantCode, env.Error.Code)
			assert.Equal(t, "rid", env.RequestID)
			assert.Nil(t, env.Error.Details)
		})
	}
}

func TestWriteErrorExposesCauseInDevelopment(t *testing.T) {
	ExposeInternalErrors(true)
	t.Cleanup(func() { ExposeInternalErrors(false) })

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("db exploded"))
	assert.Contains(t, rec.Body.String(), "db exploded")
}
