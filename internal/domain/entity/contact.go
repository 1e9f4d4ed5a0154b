package entity

import "time"

// Contact persona de contacto dentro de una Account.
type Contact struct {
	ID        int64
	AccountID int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	AccountName       string
	AccountRegionID   int64
	AccountSalesRepID *int64
}
