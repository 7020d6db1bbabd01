package domain

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // argon2id PHC string
	Role         Role
	ChurchID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Member is the public projection of a User returned by the directory.
type Member struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	ChurchID    string `json:"churchId"`
}

func (u User) Member() Member {
	return Member{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		ChurchID:    u.ChurchID,
	}
}

// Revocation marks a token id as unusable until its natural expiry.
type Revocation struct {
	TokenID   string
	Subject   string
	ExpiresAt time.Time
	RevokedAt time.Time
}
