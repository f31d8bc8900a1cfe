package backend

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the union of the success and failure login bodies.
type LoginResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Email             string `json:"email,omitempty"`
	ExpiresInMinutes  int    `json:"expires_in_minutes,omitempty"`
	Locked            bool   `json:"locked,omitempty"`
	LockoutDuration   int    `json:"lockout_duration,omitempty"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
}

// OTPRequest is the OTP verification request body.
type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// User is the verified operator in a verify response.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// VerifyResponse is the body of an OTP verify call.
type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// Item is one entry of a section listing. The content model is owned by the
// backend, so entries stay untyped.
type Item map[string]any

// Title picks the first human-readable field present.
func (i Item) Title() string {
	for _, k := range []string{"title", "name", "username", "email", "slug", "filename"} {
		if v, ok := i[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
