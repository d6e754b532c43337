package model

// User model
type User struct {
	Username string `json:"username" form:"username" validate:"max=64"`
	// Password is stored as entered unless password hashing is enabled,
	// in which case it holds a base64 encoded bcrypt hash.
	Password string `json:"password" form:"password" validate:"max=128"`
}

// SessionState is the login state of one browser
type SessionState struct {
	LoggedIn    bool   `json:"logged_in"`
	CurrentUser string `json:"current_user"`
}
