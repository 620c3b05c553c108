package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldEntryID     = "entry_id"
	FieldFileName    = "file_name"
	FieldFileSize    = "file_size"
	FieldEntryStatus = "entry_status"

	FieldTransactionID    = "transaction_id"
	FieldTransactionCount = "transaction_count"
	FieldSkippedCount     = "skipped_count"
	FieldLoadedAt         = "loaded_at"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentBackend = "backend"
	ComponentFeed    = "feed"
	ComponentUpload  = "upload"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)
