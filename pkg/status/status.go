package status

const (
	OK                    = "OK"
	CREATED               = "CREATED"
	BAD_REQUEST           = "BAD_REQUEST"
	UNAUTHORIZED          = "UNAUTHORIZED"
	FORBIDDEN             = "FORBIDDEN"
	NOT_FOUND             = "NOT_FOUND"
	CONFLICT              = "CONFLICT"
	UNPROCESSABLE_ENTITY  = "UNPROCESSABLE_ENTITY"
	INVALID_STATE         = "INVALID_STATE"
	CAPACITY_EXCEEDED     = "CAPACITY_EXCEEDED"
	ALREADY_REGISTERED    = "ALREADY_REGISTERED"
	EVENT_NOT_APPROVED    = "EVENT_NOT_APPROVED"
	INTERNAL_SERVER_ERROR = "INTERNAL_SERVER_ERROR"
)
