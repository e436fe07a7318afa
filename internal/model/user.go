package model

// Roles recognized by the API. Mutating endpoints require team or admin.
const (
	RoleClient = "client"
	RoleTeam   = "team"
	RoleAdmin  = "admin"
)

// User is a provisioned account. Users are created out-of-band and only read
// at login; this service never mutates them. Email is the unique key and is
// stored lowercased.
type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}
