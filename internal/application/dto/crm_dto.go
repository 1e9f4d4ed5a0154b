package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Accounts ─────────────────────────────────────────────────────────────────

// CreateAccountRequest entrada para crear una cuenta. Status y SalesRepID se ignoran para Sales Rep.
type CreateAccountRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Industry   string `json:"industry" validate:"omitempty,max=100"`
	Website    string `json:"website" validate:"omitempty,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=50"`
	RegionID   int64  `json:"regionId" validate:"omitempty,min=1"`
	SalesRepID *int64 `json:"salesRepId" validate:"omitempty,min=1"`
	Status     string `json:"status" validate:"omitempty,oneof=Prospect Active Inactive 'Pending Approval'"`
}

// RejectAccountRequest motivo opcional del rechazo.
type RejectAccountRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// AccountListRequest filtros de GET /api/accounts.
type AccountListRequest struct {
	Status     string `query:"status"`
	RegionID   int64  `query:"regionId"`
	SalesRepID int64  `query:"salesRepId"`
	PageRequest
}

// AccountResponse salida de una cuenta.
type AccountResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Industry     string    `json:"industry"`
	Website      string    `json:"website"`
	Phone        string    `json:"phone"`
	RegionID     int64     `json:"regionId"`
	RegionName   string    `json:"regionName,omitempty"`
	SalesRepID   *int64    `json:"salesRepId"`
	SalesRepName string    `json:"salesRepName,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ── Leads ────────────────────────────────────────────────────────────────────

// CreateLeadRequest entrada para crear un lead.
type CreateLeadRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Company  string `json:"company" validate:"omitempty,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
	Source   string `json:"source" validate:"omitempty,max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=New Contacted Qualified Unqualified Converted"`
	OwnerID  *int64 `json:"ownerId" validate:"omitempty,min=1"`
	RegionID *int64 `json:"regionId" validate:"omitempty,min=1"`
}

// LeadListRequest filtros de GET /api/leads.
type LeadListRequest struct {
	Status  string `query:"status"`
	OwnerID int64  `query:"ownerId"`
	PageRequest
}

// LeadResponse salida de un lead.
type LeadResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Company     string     `json:"company"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	OwnerID     *int64     `json:"ownerId"`
	OwnerName   string     `json:"ownerName,omitempty"`
	RegionID    *int64     `json:"regionId"`
	ConvertedAt *time.Time `json:"convertedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ConvertLeadRequest datos de la cuenta que nace del lead. Vacíos = se toman del lead
// (nombre: company o name; región: la efectiva; vendedor: el owner).
type ConvertLeadRequest struct {
	AccountName string `json:"accountName" validate:"omitempty,max=200"`
	RegionID    int64  `json:"regionId" validate:"omitempty,min=1"`
	SalesRepID  *int64 `json:"salesRepId" validate:"omitempty,min=1"`
}

// ConvertLeadResponse lead convertido y la cuenta Prospect creada.
type ConvertLeadResponse struct {
	Lead    LeadResponse    `json:"lead"`
	Account AccountResponse `json:"account"`
}

// ── Opportunities ────────────────────────────────────────────────────────────

// OpportunityListRequest filtros de GET /api/opportunities.
type OpportunityListRequest struct {
	Stage     string `query:"stage"`
	AccountID int64  `query:"accountId"`
	OwnerID   int64  `query:"ownerId"`
	OpenOnly  bool   `query:"openOnly"`
	PageRequest
}

// CreateOpportunityRequest entrada para crear una oportunidad sobre una cuenta visible.
type CreateOpportunityRequest struct {
	Name      string          `json:"name" validate:"required,min=1,max=200"`
	AccountID int64           `json:"accountId" validate:"required,min=1"`
	Stage     string          `json:"stage" validate:"omitempty,oneof=Prospecting Proposal Negotiation"`
	Amount    decimal.Decimal `json:"amount"`
	OwnerID   *int64          `json:"ownerId" validate:"omitempty,min=1"`
	CloseDate time.Time       `json:"closeDate" validate:"required"`
}

// MoveStageRequest cambio de etapa (no terminal; para cerrar usar win/lose).
type MoveStageRequest struct {
	Stage   string `json:"stage" validate:"required,oneof=Prospecting Proposal Negotiation"`
	OwnerID *int64 `json:"ownerId" validate:"omitempty,min=1"`
}

// LoseOpportunityRequest motivo de pérdida.
type LoseOpportunityRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// OpportunityResponse salida de una oportunidad con los datos heredados de la cuenta.
type OpportunityResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	AccountID   int64           `json:"accountId"`
	AccountName string          `json:"accountName,omitempty"`
	RegionID    int64           `json:"regionId"`
	RegionName  string          `json:"regionName,omitempty"`
	Stage       string          `json:"stage"`
	Amount      decimal.Decimal `json:"amount"`
	OwnerID     *int64          `json:"ownerId"`
	OwnerName   string          `json:"ownerName,omitempty"`
	CloseDate   time.Time       `json:"closeDate"`
	WonAt       *time.Time      `json:"wonAt,omitempty"`
	LostAt      *time.Time      `json:"lostAt,omitempty"`
	LostReason  string          `json:"lostReason,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ── Contacts ─────────────────────────────────────────────────────────────────

// CreateContactRequest entrada para crear un contacto en una cuenta visible.
type CreateContactRequest struct {
	AccountID int64  `json:"accountId" validate:"required,min=1"`
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
	Title     string `json:"title" validate:"omitempty,max=100"`
}

// ContactResponse salida de un contacto.
type ContactResponse struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"accountId"`
	AccountName string    `json:"accountName,omitempty"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ── Tasks & Documents ────────────────────────────────────────────────────────

// CreateTaskRequest entrada para crear una tarea ligada a un Lead, Account u Opportunity.
type CreateTaskRequest struct {
	Subject           string     `json:"subject" validate:"required,min=1,max=200"`
	Description       string     `json:"description" validate:"omitempty,max=2000"`
	Type              string     `json:"type" validate:"omitempty,max=50"`
	Priority          string     `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	DueDate           *time.Time `json:"dueDate"`
	RelatedEntityType string     `json:"relatedEntityType" validate:"omitempty,oneof=Lead Account Opportunity lead account opportunity"`
	RelatedEntityID   int64      `json:"relatedEntityId" validate:"omitempty,min=1"`
	AssignedToID      *int64     `json:"assignedToId" validate:"omitempty,min=1"`
}

// TaskListRequest filtros de GET /api/tasks.
type TaskListRequest struct {
	Status       string `query:"status"`
	AssignedToID int64  `query:"assignedToId"`
	PageRequest
}

// TaskResponse salida de una tarea.
type TaskResponse struct {
	ID                int64      `json:"id"`
	Subject           string     `json:"subject"`
	Description       string     `json:"description"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	RelatedEntityType string     `json:"relatedEntityType,omitempty"`
	RelatedEntityID   int64      `json:"relatedEntityId,omitempty"`
	AssignedToID      *int64     `json:"assignedToId"`
	CreatedByID       *int64     `json:"createdById"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// DocumentResponse metadatos de un documento (el almacenamiento del archivo es externo).
type DocumentResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	URL               string    `json:"url"`
	RelatedEntityType string    `json:"relatedEntityType"`
	RelatedEntityID   int64     `json:"relatedEntityId"`
	UploadedByID      *int64    `json:"uploadedById"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ── Audit logs ───────────────────────────────────────────────────────────────

// AuditLogListRequest filtros de GET /api/audit-logs. Fechas YYYY-MM-DD o RFC3339.
type AuditLogListRequest struct {
	UserID     int64  `query:"userId" validate:"min=0"`
	Action     string `query:"action"`
	EntityType string `query:"entityType"`
	DateFrom   string `query:"dateFrom"`
	DateTo     string `query:"dateTo"`
	PageRequest
}

// AuditLogResponse entrada del historial.
type AuditLogResponse struct {
	ID         int64          `json:"id"`
	EventID    string         `json:"eventId"`
	Timestamp  time.Time      `json:"timestamp"`
	UserID     int64          `json:"userId"`
	UserName   string         `json:"userName,omitempty"`
	Role       string         `json:"role"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   int64          `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
}

// ── Listados ─────────────────────────────────────────────────────────────────

// ListResponse lista paginada genérica.
type ListResponse[T any] struct {
	Items []T          `json:"items"`
	Page  PageResponse `json:"page"`
}
