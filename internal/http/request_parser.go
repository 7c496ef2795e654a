// Package http serves the admin UI: full pages for navigation and HTMX
// partials for the in-page updates.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pamadmin/internal/core"
)

const maxBodyBytes = 64 << 10

// ParseMonthCursor positions a cursor on the "month" value (YYYY-MM) of
// values. A missing or malformed month, or one in the future, selects the
// current month.
func ParseMonthCursor(values url.Values, clock func() time.Time) *core.MonthCursor {
	var m core.Month
	if v := strings.TrimSpace(values.Get("month")); v != "" {
		if parsed, err := core.ParseMonth(v); err == nil {
			m = parsed
		}
	}
	return core.NewMonthCursor(m, clock)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r once, up to 64 KiB.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.isJSON() {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// isJSON trusts the Content-Type header and falls back to sniffing for an
// object body.
func (p *RequestBodyParser) isJSON() bool {
	if strings.HasPrefix(strings.ToLower(p.contentType), "application/json") {
		return true
	}
	return p.body[0] == '{'
}

// Get returns a sanitized value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns a value without trimming. Passwords go through here.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
