package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldKey         = "key"
	FieldBytes       = "bytes"
	FieldCount       = "count"
	FieldHouseholdID = "household_id"
	FieldUserID      = "user_id"
	FieldRecordID    = "record_id"
	FieldRecordKind  = "record_kind"
	FieldAmountCents = "amount_cents"
	FieldBackend     = "backend"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentStore      = "store"
	ComponentSession    = "session"
	ComponentCollection = "collection"
	ComponentStorage    = "storage"
	ComponentCache      = "cache"
	ComponentAMQP       = "amqp"
	ComponentNotifier   = "notifier"
	ComponentBackend    = "backend"
	ComponentMetrics    = "metrics"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpWrite    = "write"
	OpRemove   = "remove"
	OpRestore  = "restore"
	OpFlush    = "flush"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds record identity fields
func (f LogFields) WithRecord(kind, id, householdID string) LogFields {
	f[FieldRecordKind] = kind
	f[FieldRecordID] = id
	f[FieldHouseholdID] = householdID
	return f
}

// WithKey adds the storage key field
func (f LogFields) WithKey(key string) LogFields {
	f[FieldKey] = key
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
