package model

// UserRole is the role claim carried by access tokens. Users themselves live
// with the auth provider.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)
