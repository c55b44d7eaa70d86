package storage

const (
	// KeyCMSToken is where a captured bearer token is stored.
	KeyCMSToken = "ophelia_cms_jwt"
	// KeyAPIBase overrides the API origin for a non-colocated backend.
	KeyAPIBase = "ophelia_api_base"
	// KeyPreferences holds the JSON preferences blob (liked items).
	KeyPreferences = "laglaneuse_user_preferences"
)

// TokenKeys lists bearer token keys by priority.
var TokenKeys = []string{KeyCMSToken, "cms_jwt", "auth_token", "token"}

// UserIDKeys lists the legacy numeric identity keys by priority.
var UserIDKeys = []string{"ophelia_user_id", "telegram_user_id", "tg_user_id", "user_id"}
