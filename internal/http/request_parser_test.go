package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pamadmin/internal/core"
)

func TestParseMonthCursor(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, time.November, 4, 9, 0, 0, 0, time.UTC) }
	nov := core.Month{Year: 2025, Month: time.November}

	tests := []struct {
		name  string
		query url.Values
		want  core.Month
	}{
		{"explicit past month", url.Values{"month": {"2025-03"}}, core.Month{Year: 2025, Month: time.March}},
		{"missing month", url.Values{}, nov},
		{"malformed month", url.Values{"month": {"march"}}, nov},
		{"future month is clamped", url.Values{"month": {"2026-01"}}, nov},
		{"whitespace", url.Values{"month": {" 2024-12 "}}, core.Month{Year: 2024, Month: time.December}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParseMonthCursor(tt.query, clock)
			assert.Equal(t, tt.want, c.Month())
		})
	}

	c := ParseMonthCursor(url.Values{"month": {"2025-11"}}, clock)
	assert.True(t, c.IsCurrent())
	assert.Equal(t, nov, c.NextMonth())
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"userId": "2", "status": " sick ", "urgent": true, "n": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	require.NoError(t, parser.Parse())

	assert.Equal(t, "2", parser.Get("userId"))
	assert.Equal(t, "sick", parser.Get("status"))
	assert.Equal(t, " sick ", parser.GetRaw("status"))
	assert.Equal(t, "true", parser.Get("urgent"))
	assert.Equal(t, "42.5", parser.Get("n"))
}

func TestRequestBodyParser_JSONContentTypeRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`["sick"]`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	parser := NewRequestBodyParser(req)
	assert.Error(t, parser.Parse())
	assert.Empty(t, parser.Get("status"))
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "date=2025-11-03&reason=flu+%01shot&password=+secret+"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	require.NoError(t, parser.Parse())

	assert.Equal(t, "2025-11-03", parser.Get("date"))
	assert.Equal(t, "flu shot", parser.Get("reason"))
	assert.Equal(t, " secret ", parser.GetRaw("password"))
}

func TestRequestBodyParser_EmptyAndBroken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))
	parser := NewRequestBodyParser(req)
	require.NoError(t, parser.Parse())
	assert.Empty(t, parser.Get("nonexistent"))

	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("{not json"))
	parser = NewRequestBodyParser(req)
	assert.Error(t, parser.Parse())
	// the error is sticky
	assert.Error(t, parser.Parse())
}

func TestParseFormOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("field=value"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	assert.Nil(t, ParseFormOrFail(req))
	assert.Equal(t, "value", req.Form.Get("field"))

	req = httptest.NewRequest(http.MethodPost, "/test?bad=%zz", nil)
	assert.NotNil(t, ParseFormOrFail(req))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\tb\x00 "))
	assert.Equal(t, "line1\nline2", sanitizeInput("line1\nline2\x07"))
	assert.Empty(t, sanitizeInput("   "))
}
