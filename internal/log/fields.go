package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldOwner         = "owner"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldType          = "type"
	FieldStartDate     = "start_date"
	FieldEndDate       = "end_date"
	FieldEventKind     = "event_kind"
	FieldPage          = "page"
	FieldCount         = "count"
)

// Components
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentTransaction = "transaction"
	ComponentReport      = "report"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
	ComponentAuth        = "auth"
	ComponentRateLimit   = "rate_limit"
	ComponentBackend     = "backend"
	ComponentCLI         = "cli"
)

// Operations
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReport   = "report"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Error categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields is a small builder for slog key/value pairs. Insertion order is
// kept so records read the same way every time.
type LogFields struct {
	kv []any
}

func NewFields() *LogFields {
	return &LogFields{}
}

func (f *LogFields) add(k string, v any) *LogFields {
	f.kv = append(f.kv, k, v)
	return f
}

func (f *LogFields) WithComponent(component string) *LogFields {
	return f.add(FieldComponent, component)
}

func (f *LogFields) WithOperation(op string) *LogFields {
	return f.add(FieldOperation, op)
}

func (f *LogFields) WithOwner(owner string) *LogFields {
	return f.add(FieldOwner, owner)
}

func (f *LogFields) WithTransaction(id string) *LogFields {
	return f.add(FieldTransactionID, id)
}

func (f *LogFields) WithError(err error) *LogFields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

func (f *LogFields) WithErrorType(t string) *LogFields {
	return f.add(FieldErrorType, t)
}

func (f *LogFields) With(k string, v any) *LogFields {
	return f.add(k, v)
}

// ToSlice returns the pairs for slog's variadic args.
func (f *LogFields) ToSlice() []any {
	return append([]any(nil), f.kv...)
}
