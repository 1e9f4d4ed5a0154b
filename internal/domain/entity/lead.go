package entity

import "time"

// Estados de Lead.
const (
	LeadStatusNew         = "New"
	LeadStatusContacted   = "Contacted"
	LeadStatusQualified   = "Qualified"
	LeadStatusUnqualified = "Unqualified"
	LeadStatusConverted   = "Converted"
)

// Lead prospecto sin cuenta. OwnerID y RegionID pueden ser nulos (lead sin asignar).
type Lead struct {
	ID          int64
	Name        string
	Company     string
	Email       string
	Phone       string
	Source      string
	Status      string
	OwnerID     *int64
	RegionID    *int64
	ConvertedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Región principal del owner (join).
	OwnerRegionID *int64
	OwnerName     string
}

// EffectiveRegionID es la región usada para el alcance: la del owner si existe, si no la del lead.
func (l *Lead) EffectiveRegionID() *int64 {
	if l.OwnerRegionID != nil {
		return l.OwnerRegionID
	}
	return l.RegionID
}
