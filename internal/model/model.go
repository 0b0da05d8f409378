// Package model contains domain models shared across the HTTP, service and persistence layers.
// Models carry no database-specific tags; the repositories map columns explicitly.
package model

// Permission is the access level granted by a share.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	switch p {
	case PermissionView, PermissionEdit:
		return true
	}
	return false
}
