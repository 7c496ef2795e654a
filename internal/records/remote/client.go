// Package remote talks to the attendance back-end over its HTTP JSON API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pamadmin/internal/core"
	"pamadmin/internal/records"
)

// Config holds the connection settings for the back-end.
type Config struct {
	BaseURL string
	Timeout time.Duration // per call
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

var _ records.Store = (*Client)(nil)

// New returns a client for cfg.BaseURL. A nil httpClient gets a default
// client with a short dial timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		http:    httpClient,
	}
}

type (
	wireUser struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Phone          string `json:"phone"`
		FaceImage      string `json:"faceImage"`
		TodayAbsention string `json:"todayAbsention"`
	}

	wireDay struct {
		Status    string  `json:"status"`
		Timestamp *string `json:"timestamp"`
		Type      *string `json:"type"`
		Reason    string  `json:"reason"`
	}

	wireRecord struct {
		UserID   string             `json:"userId"`
		UserName string             `json:"userName"`
		Days     map[string]wireDay `json:"days"`
	}

	wireClockEvent struct {
		Type       string   `json:"type"`
		Timestamp  *string  `json:"timestamp"`
		Confidence *float64 `json:"confidence"`
	}

	wireSalary struct {
		BasicSalary decimal.Decimal `json:"basicSalary"`
		Allowances  decimal.Decimal `json:"allowances"`
		Deductions  decimal.Decimal `json:"deductions"`
		NetSalary   decimal.Decimal `json:"netSalary"`
	}

	envelope struct {
		Success     *bool        `json:"success"`
		Message     string       `json:"message"`
		Users       []wireUser   `json:"users"`
		User        *wireUser    `json:"user"`
		Month       string       `json:"month"`
		WorkingDays []string     `json:"workingDays"`
		UserName    string       `json:"userName"`
		Salary      *wireSalary  `json:"salary"`

		// Records holds day maps for month status and clock events for
		// the clock log.
		Records json.RawMessage `json:"records"`
	}

	errorBody struct {
		Detail json.RawMessage `json:"detail"`
	}
)

func (c *Client) ListUsers(ctx context.Context) ([]core.User, error) {
	var env envelope
	if err := c.do(ctx, "list users", http.MethodGet, "/api/users", nil, &env); err != nil {
		return nil, err
	}
	users := make([]core.User, 0, len(env.Users))
	for _, u := range env.Users {
		users = append(users, u.toCore())
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (core.User, error) {
	var env envelope
	if err := c.do(ctx, "get user", http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &env); err != nil {
		return core.User{}, err
	}
	if env.User == nil {
		return core.User{}, &core.TransportError{Op: "get user", Detail: "response has no user"}
	}
	return env.User.toCore(), nil
}

func (c *Client) CreateUser(ctx context.Context, u core.NewUser) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	q := url.Values{}
	q.Set("name", u.Name)
	q.Set("phone", u.Phone)
	q.Set("password", u.Password)
	if u.FaceImage != "" {
		q.Set("faceImage", u.FaceImage)
	}
	var env envelope
	if err := c.do(ctx, "create user", http.MethodPost, "/api/users", q, &env); err != nil {
		return core.User{}, err
	}
	if env.User == nil {
		return core.User{}, &core.TransportError{Op: "create user", Detail: "response has no user"}
	}
	return env.User.toCore(), nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, u core.UserUpdate) (core.User, error) {
	q := url.Values{}
	for k, v := range map[string]string{"name": u.Name, "phone": u.Phone, "password": u.Password, "faceImage": u.FaceImage} {
		if v != "" {
			q.Set(k, v)
		}
	}
	var env envelope
	if err := c.do(ctx, "update user", http.MethodPut, "/api/users/"+url.PathEscape(id), q, &env); err != nil {
		return core.User{}, err
	}
	if env.User == nil {
		return core.User{}, &core.TransportError{Op: "update user", Detail: "response has no user"}
	}
	return env.User.toCore(), nil
}

func (c *Client) MonthStatus(ctx context.Context, m core.Month) (core.MonthStatus, error) {
	var env envelope
	if err := c.do(ctx, "month status", http.MethodGet, "/api/attendance/status/month/"+m.String(), nil, &env); err != nil {
		return core.MonthStatus{}, err
	}

	var recs []wireRecord
	if err := decodeRecords("month status", env.Records, &recs); err != nil {
		return core.MonthStatus{}, err
	}

	ms := core.MonthStatus{
		Month:       m,
		WorkingDays: make([]core.WorkingDay, 0, len(env.WorkingDays)),
		Records:     make([]core.UserMonthRecord, 0, len(recs)),
	}
	for _, d := range env.WorkingDays {
		ms.WorkingDays = append(ms.WorkingDays, core.WorkingDay(d))
	}
	for _, r := range recs {
		days := make(core.UserDayMap, len(r.Days))
		for date, d := range r.Days {
			days[core.WorkingDay(date)] = d.toCore()
		}
		ms.Records = append(ms.Records, core.UserMonthRecord{UserID: r.UserID, UserName: r.UserName, Days: days})
	}
	return ms, nil
}

func (c *Client) UpdateStatus(ctx context.Context, ch core.StatusChange) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("userId", ch.UserID)
	q.Set("date", string(ch.Date))
	q.Set("status", string(ch.Status))
	q.Set("reason", ch.Reason)
	return c.do(ctx, "update status", http.MethodPost, "/api/attendance/status/update", q, nil)
}

func (c *Client) ClockLog(ctx context.Context, userID string) (core.ClockLog, error) {
	var env envelope
	if err := c.do(ctx, "clock log", http.MethodGet, "/api/attendance/user/"+url.PathEscape(userID), nil, &env); err != nil {
		return core.ClockLog{}, err
	}
	var evs []wireClockEvent
	if err := decodeRecords("clock log", env.Records, &evs); err != nil {
		return core.ClockLog{}, err
	}

	out := core.ClockLog{UserID: userID, UserName: env.UserName, Events: make([]core.ClockEvent, 0, len(evs))}
	for _, ev := range evs {
		out.Events = append(out.Events, ev.toCore())
	}
	return out, nil
}

func (c *Client) SalarySlip(ctx context.Context, userID string, m core.Month) (core.SalarySlip, error) {
	var env envelope
	path := "/api/salary/" + url.PathEscape(userID) + "/slip/" + m.String()
	if err := c.do(ctx, "salary slip", http.MethodGet, path, nil, &env); err != nil {
		return core.SalarySlip{}, err
	}
	if env.Salary == nil {
		return core.SalarySlip{}, &core.TransportError{Op: "salary slip", Detail: "response has no salary"}
	}
	return core.SalarySlip{
		UserID:      userID,
		UserName:    env.UserName,
		Month:       m,
		BasicSalary: env.Salary.BasicSalary,
		Allowances:  env.Salary.Allowances,
		Deductions:  env.Salary.Deductions,
		NetSalary:   env.Salary.NetSalary,
	}, nil
}

// Ping checks the back-end health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.do(ctx, "health", http.MethodGet, "/api/health", nil, nil)
}

// do issues one request and decodes the JSON body into out when non-nil.
// Query parameters carry the payload, as the back-end expects.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, out *envelope) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &core.TransportError{Op: op, Detail: "request timed out", Err: ctx.Err()}
		}
		if isConnectionError(err) {
			return &core.TransportError{Op: op, Detail: "connection failed", Err: err}
		}
		return &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, body)
	}

	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	if env.Success != nil && !*env.Success {
		detail := env.Message
		if detail == "" {
			detail = "request failed"
		}
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
	}
	if out != nil {
		*out = env
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(op string, code int, body []byte) error {
	detail := parseDetail(body)
	switch code {
	case http.StatusNotFound:
		if detail == "" {
			detail = "not found"
		}
		return &core.NotFoundError{Msg: detail}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if detail == "" {
			detail = "request rejected"
		}
		return &core.ValidationError{Msg: detail}
	}
	if detail == "" {
		detail = "Request failed"
	}
	return &core.TransportError{Op: op, StatusCode: code, Detail: detail}
}

// parseDetail extracts the "detail" field, which is a string for handled
// errors and a list of objects for request validation failures.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(eb.Detail)
}

// decodeRecords unmarshals the records field. A missing or null field
// leaves dst empty.
func decodeRecords(op string, raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("decoding records: %w", err)}
	}
	return nil
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func (u wireUser) toCore() core.User {
	st := core.Status(u.TodayAbsention)
	if !st.Valid() {
		st = ""
	}
	return core.User{ID: u.ID, Name: u.Name, Phone: u.Phone, FaceImage: u.FaceImage, TodayStatus: st}
}

func (d wireDay) toCore() core.DayStatus {
	ds := core.DayStatus{Status: core.Status(d.Status), Reason: d.Reason}
	if d.Timestamp != nil {
		ds.RecordedAt = records.ParseTimestamp(*d.Timestamp)
	}
	if d.Type != nil {
		ds.Type = *d.Type
	}
	return ds
}

func (e wireClockEvent) toCore() core.ClockEvent {
	ev := core.ClockEvent{Type: e.Type}
	if e.Timestamp != nil {
		ev.At = records.ParseTimestamp(*e.Timestamp)
	}
	if e.Confidence != nil {
		ev.Confidence = *e.Confidence
	}
	return ev
}
