package http

import "github.com/faithlink360/gateway/internal/faithlink/domain"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool          `json:"success"`
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expiresIn"` // seconds
	User      domain.Member `json:"user"`
}

type IdentityResponse struct {
	Subject   string `json:"id"`
	Role      string `json:"role"`
	ChurchID  string `json:"churchId"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

type MeResponse struct {
	Success bool             `json:"success"`
	User    IdentityResponse `json:"user"`
	Profile *domain.Member   `json:"profile,omitempty"`
}

type MembersResponse struct {
	Success  bool            `json:"success"`
	ChurchID string          `json:"churchId"`
	Members  []domain.Member `json:"members"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
