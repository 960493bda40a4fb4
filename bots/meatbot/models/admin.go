package models

import "time"

// AdminRole defines the privilege tier of a staff member.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleAdmin      AdminRole = "admin"
	RoleModerator  AdminRole = "moderator"
)

// Permission names a single admin capability.
type Permission string

const (
	PermManageCatalog  Permission = "manage_catalog"
	PermManageOrders   Permission = "manage_orders"
	PermManagePayments Permission = "manage_payments"
	PermManageAdmins   Permission = "manage_admins"
	PermViewStats      Permission = "view_stats"
)

var rolePermissions = map[AdminRole][]Permission{
	RoleSuperAdmin: {PermManageCatalog, PermManageOrders, PermManagePayments, PermManageAdmins, PermViewStats},
	RoleAdmin:      {PermManageCatalog, PermManageOrders, PermManagePayments, PermViewStats},
	RoleModerator:  {PermManageOrders, PermViewStats},
}

// Can reports whether the role grants the permission.
func (r AdminRole) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// AdminUser is a staff member allowed into the admin menu.
type AdminUser struct {
	ID         int64     `db:"id" json:"id"`
	TelegramID int64     `db:"telegram_id" json:"telegram_id"`
	Role       AdminRole `db:"role" json:"role"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
