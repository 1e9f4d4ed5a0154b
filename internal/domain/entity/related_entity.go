package entity

import (
	"fmt"
	"strings"
)

// Kind tipo de entidad sujeta a reglas de alcance.
type Kind string

const (
	KindAccount     Kind = "Account"
	KindLead        Kind = "Lead"
	KindOpportunity Kind = "Opportunity"
	KindContact     Kind = "Contact"
	KindTask        Kind = "Task"
	KindDocument    Kind = "Document"
	KindUser        Kind = "User" // solo auditoría; sin regla de alcance
)

// RelatedEntity referencia polimórfica de Task y Document. El valor cero significa "sin relación".
type RelatedEntity struct {
	Kind Kind
	ID   int64
}

// IsZero indica que no hay entidad relacionada.
func (r RelatedEntity) IsZero() bool { return r.Kind == "" }

// ParseRelatedKind valida el tipo de entidad que Task y Document pueden referenciar.
func ParseRelatedKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lead":
		return KindLead, nil
	case "account":
		return KindAccount, nil
	case "opportunity":
		return KindOpportunity, nil
	}
	return "", fmt.Errorf("tipo de entidad relacionada no soportado: %q", s)
}

// NewRelatedEntity construye la referencia validando el tipo.
func NewRelatedEntity(kind string, id int64) (RelatedEntity, error) {
	k, err := ParseRelatedKind(kind)
	if err != nil {
		return RelatedEntity{}, err
	}
	if id <= 0 {
		return RelatedEntity{}, fmt.Errorf("id de entidad relacionada inválido: %d", id)
	}
	return RelatedEntity{Kind: k, ID: id}, nil
}
