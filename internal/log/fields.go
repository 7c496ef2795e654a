package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldMonth      = "month"
	FieldUserID     = "user_id"
	FieldDate       = "date"
	FieldStatus     = "status"
	FieldOldStatus  = "old_status"
	FieldActor      = "actor"
	FieldSessionID  = "session_id"
)

// Components
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentAttendance = "attendance"
	ComponentPayroll    = "payroll"
	ComponentUsers      = "users"
	ComponentSession    = "session"
	ComponentStore      = "store"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentReport     = "report"
	ComponentCache      = "cache"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentBackend    = "backend"
	ComponentTemplate   = "template"
)

// Operations
const (
	OpCreate       = "create"
	OpRead         = "read"
	OpUpdate       = "update"
	OpList         = "list"
	OpChangeStatus = "change_status"
	OpExport       = "export"
	OpLogin        = "login"
	OpLogout       = "logout"
	OpRender       = "render"
	OpShutdown     = "shutdown"
	OpStartup      = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error field; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithStatusChange adds the fields identifying one day's status mutation.
func (f LogFields) WithStatusChange(userID, date, oldStatus, newStatus string) LogFields {
	f[FieldUserID] = userID
	f[FieldDate] = date
	f[FieldStatus] = newStatus
	if oldStatus != "" {
		f[FieldOldStatus] = oldStatus
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
