package models

// User represents a staff account allowed to use the admin dashboard.
// It maps to the `users` table in SQLite.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Role     string `db:"role" json:"role"`
}

// Staff roles. RoleEndUser is the default for accounts created without a role.
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
	RoleEndUser = "end user"
)
