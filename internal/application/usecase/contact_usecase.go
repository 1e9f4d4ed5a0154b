package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// ContactUseCase contactos; heredan el alcance de su cuenta.
type ContactUseCase struct {
	engine   *access.Engine
	contacts repository.ContactRepository
	audit    *Auditor
}

// NewContactUseCase construye el caso de uso.
func NewContactUseCase(engine *access.Engine, contacts repository.ContactRepository, audit *Auditor) *ContactUseCase {
	return &ContactUseCase{engine: engine, contacts: contacts, audit: audit}
}

// List contactos visibles; accountID > 0 filtra por cuenta.
func (uc *ContactUseCase) List(ctx context.Context, u access.ActingUser, accountID int64, p dto.PageRequest) (*dto.ListResponse[dto.ContactResponse], error) {
	page := toPage(p)
	rows, err := uc.contacts.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindContact), repository.ContactFilter{AccountID: optID(accountID), Page: page})
	if err != nil {
		return nil, storeErr("contacts: listar", err)
	}
	return &dto.ListResponse[dto.ContactResponse]{Items: mapList(rows, toContactResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID detalle de un contacto.
func (uc *ContactUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.ContactResponse, error) {
	c, err := uc.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("contacts: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindContact, c); err != nil {
		return nil, err
	}
	out := toContactResponse(c)
	return &out, nil
}

// Create crea un contacto en una cuenta visible para el usuario.
func (uc *ContactUseCase) Create(ctx context.Context, u access.ActingUser, req dto.CreateContactRequest) (*dto.ContactResponse, error) {
	c := &entity.Contact{
		AccountID: req.AccountID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
	}
	if c.FirstName == "" {
		return nil, domain.NewValidationError("firstName", "firstName es requerido")
	}
	if err := uc.engine.AuthorizeLink(ctx, u, entity.RelatedEntity{Kind: entity.KindAccount, ID: c.AccountID}); err != nil {
		return nil, err
	}
	if err := uc.contacts.Create(ctx, c); err != nil {
		return nil, storeErr("contacts: crear", err)
	}
	uc.audit.Record(ctx, u, ActionContactCreated, entity.KindContact, c.ID, map[string]any{"accountId": c.AccountID})
	if fresh, err := uc.contacts.GetByID(ctx, c.ID); err == nil && fresh != nil {
		c = fresh
	}
	out := toContactResponse(c)
	return &out, nil
}

func toContactResponse(c *entity.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:          c.ID,
		AccountID:   c.AccountID,
		AccountName: c.AccountName,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		Title:       c.Title,
		CreatedAt:   c.CreatedAt,
	}
}
