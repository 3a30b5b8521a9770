package model

import (
	"time"
)

const (
	RoleVoter = "voter"
	RoleAdmin = "admin"
)

// User is a registered voter or the platform admin. The national ID number is
// the login username and the uniqueness key.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Email          *string   `json:"email,omitempty"`
	Mobile         *string   `json:"mobile,omitempty"`
	Address        string    `json:"address"`
	NationalID     string    `json:"national_id"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	HasVoted       bool      `json:"has_voted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
