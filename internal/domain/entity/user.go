package entity

import (
	"strings"
	"time"
)

// Role determina la visibilidad y los permisos de escritura de un usuario.
type Role string

// Roles válidos para User.
const (
	RoleSalesRep     Role = "Sales Rep"
	RoleRegionalLead Role = "Regional Lead"
	RoleSuperAdmin   Role = "Super Admin"
)

// Roles devuelve los roles conocidos en orden de menor a mayor alcance.
func Roles() []Role {
	return []Role{RoleSalesRep, RoleRegionalLead, RoleSuperAdmin}
}

// ParseRole acepta el nombre visible ("Sales Rep") o su forma compacta ("SalesRep", "sales_rep").
func ParseRole(s string) (Role, bool) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "salesrep":
		return RoleSalesRep, true
	case "regionallead":
		return RoleRegionalLead, true
	case "superadmin":
		return RoleSuperAdmin, true
	}
	return "", false
}

// Valid indica si el rol es uno de los tres conocidos (forma canónica).
func (r Role) Valid() bool {
	switch r {
	case RoleSalesRep, RoleRegionalLead, RoleSuperAdmin:
		return true
	}
	return false
}

// User representa un usuario del CRM.
// SecondaryRegionIDs solo tiene efecto para Regional Lead.
type User struct {
	ID                 int64
	Name               string
	Email              string
	PasswordHash       string // bcrypt hash
	Role               Role
	PrimaryRegionID    *int64
	SecondaryRegionIDs []int64
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
