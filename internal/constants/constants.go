package constants

// Context keys
const (
	ContextKeyUser   = "current_user"
	ContextKeyUserID = "user_id"
)

// Password rules
const MinPasswordLength = 6

// Activity log pagination
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
	DefaultRecentLimit   = 10
)
