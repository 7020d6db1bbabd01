package faithlinksdk

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Member struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	ChurchID    string `json:"churchId"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
	User      Member `json:"user"`
}

// Identity is what the gateway read from the token.
type Identity struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	ChurchID  string `json:"churchId"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

type MeResponse struct {
	Success bool     `json:"success"`
	User    Identity `json:"user"`
	Profile *Member  `json:"profile,omitempty"`
}

type MembersResponse struct {
	Success  bool     `json:"success"`
	ChurchID string   `json:"churchId"`
	Members  []Member `json:"members"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the body of every gateway error.
type ErrorResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	RetryAfter int      `json:"retryAfter,omitempty"`
	Required   []string `json:"required,omitempty"`
	Current    string   `json:"current,omitempty"`
}
