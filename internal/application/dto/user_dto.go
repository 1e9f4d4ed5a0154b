package dto

// UserResponse salida de un usuario (sin hash de password).
type UserResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Role               string  `json:"role"`
	PrimaryRegionID    *int64  `json:"primaryRegionId"`
	SecondaryRegionIDs []int64 `json:"secondaryRegionIds"`
	Active             bool    `json:"active"`
}

// ChangeRoleRequest entrada de PUT /api/users/:id/role.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof='Sales Rep' 'Regional Lead' 'Super Admin' SalesRep RegionalLead SuperAdmin"`
}

// RegionDTO región.
type RegionDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EffectiveRegionsResponse regiones efectivas de un usuario; AllRegions=true para Super Admin.
type EffectiveRegionsResponse struct {
	UserID     int64       `json:"userId"`
	Role       string      `json:"role"`
	AllRegions bool        `json:"allRegions"`
	Regions    []RegionDTO `json:"regions"`
}
