package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRecordID    = "record_id"
	FieldUserID      = "user_id"
	FieldRecordType  = "record_type"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldUsername    = "username"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentStorage    = "storage"
	ComponentRepository = "repository"
	ComponentSession    = "session"
	ComponentAuth       = "auth"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
