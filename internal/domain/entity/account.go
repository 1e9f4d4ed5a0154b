package entity

import "time"

// Estados válidos para Account.
const (
	AccountStatusProspect        = "Prospect"
	AccountStatusActive          = "Active"
	AccountStatusInactive        = "Inactive"
	AccountStatusPendingApproval = "Pending Approval"
)

// ValidAccountStatus indica si s es un estado de cuenta conocido.
func ValidAccountStatus(s string) bool {
	switch s {
	case AccountStatusProspect, AccountStatusActive, AccountStatusInactive, AccountStatusPendingApproval:
		return true
	}
	return false
}

// Account cliente (empresa) gestionado por un Sales Rep dentro de exactamente una Region.
type Account struct {
	ID         int64
	Name       string
	Industry   string
	Website    string
	Phone      string
	RegionID   int64
	SalesRepID *int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Campos de lectura (join), no se persisten en accounts.
	RegionName   string
	SalesRepName string
}
