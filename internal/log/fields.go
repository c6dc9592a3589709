package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldDescription   = "descricao"
	FieldAmountCents   = "valor_centavos"
	FieldKind          = "tipo"
	FieldCategory      = "categoria"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentService = "service"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpList      = "list"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpSummarize = "summarize"
	OpBreakdown = "category_breakdown"
	OpPublish   = "publish"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
