package contextkeys

type contextKey string

const (
	// UserIDKey holds the authenticated user's ID (uuid.UUID).
	UserIDKey contextKey = "userID"
	// AdminKey marks a request authenticated with the admin cookie.
	AdminKey contextKey = "admin"
)
