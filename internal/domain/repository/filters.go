package repository

import "github.com/jhoicas/crm-api/internal/domain/entity"

// Page paginación de listados. Limit == 0 significa sin límite (uso interno, ej. dashboard).
type Page struct {
	Limit  int
	Offset int
}

// AccountFilter filtros de negocio que se combinan (AND) con el predicado de alcance.
type AccountFilter struct {
	Status     string
	RegionID   *int64
	SalesRepID *int64
	Page
}

// LeadFilter filtros de listado de leads.
type LeadFilter struct {
	Status  string
	OwnerID *int64
	Page
}

// OpportunityFilter filtros de listado de oportunidades.
type OpportunityFilter struct {
	Stage     string
	AccountID *int64
	OwnerID   *int64
	OpenOnly  bool
	Page
}

// ContactFilter filtros de listado de contactos.
type ContactFilter struct {
	AccountID *int64
	Page
}

// TaskFilter filtros de listado de tareas.
type TaskFilter struct {
	Status       string
	AssignedToID *int64
	Related      *entity.RelatedEntity
	Page
}

// DocumentFilter filtros de listado de documentos.
type DocumentFilter struct {
	Related *entity.RelatedEntity
	Page
}
