package models

import "time"

// Role values mirror the console hierarchy.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleEmployee   = "employee"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CanManage reports whether the role may edit employee assignments.
func CanManage(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleManager:
		return true
	}
	return false
}
