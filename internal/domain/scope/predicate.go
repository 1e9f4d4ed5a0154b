// Package scope define el predicado de alcance que decide qué filas ve un usuario.
//
// Un Predicate es un árbol pequeño (All, None, Eq, In, Or, And, Related) que los
// repositorios traducen a SQL y que Matches evalúa en memoria sobre un registro ya cargado.
// Ambas rutas deben coincidir: el listado y el detalle nunca pueden discrepar.
package scope

import (
	"sort"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// Field columna lógica sobre la que filtra un predicado.
type Field string

const (
	// Account
	FieldSalesRepID Field = "sales_rep_id"
	FieldRegionID   Field = "region_id"
	// Lead
	FieldOwnerID    Field = "owner_id"
	FieldLeadRegion Field = "lead_region" // región del owner, o la del lead si no tiene owner
	// Opportunity y Contact (heredados de la cuenta)
	FieldAccountSalesRepID Field = "account_sales_rep_id"
	FieldAccountRegionID   Field = "account_region_id"
	// Task
	FieldAssignedToID Field = "assigned_to_id"
)

// Predicate nodo del árbol de alcance.
type Predicate interface {
	isPredicate()
}

type allPredicate struct{}
type nonePredicate struct{}

func (allPredicate) isPredicate()  {}
func (nonePredicate) isPredicate() {}

// All no filtra nada.
func All() Predicate { return allPredicate{} }

// None no deja pasar ninguna fila.
func None() Predicate { return nonePredicate{} }

// IsAll indica si p es el predicado sin filtro.
func IsAll(p Predicate) bool {
	_, ok := p.(allPredicate)
	return ok
}

// IsNone indica si p no deja pasar ninguna fila.
func IsNone(p Predicate) bool {
	_, ok := p.(nonePredicate)
	return ok
}

// Eq exige Field == Value. Un campo nulo nunca coincide.
type Eq struct {
	Field Field
	Value int64
}

// In exige Field ∈ Values. Un campo nulo nunca coincide.
type In struct {
	Field  Field
	Values []int64
}

// Or unión de términos.
type Or struct {
	Terms []Predicate
}

// And intersección de términos.
type And struct {
	Terms []Predicate
}

// Related se cumple cuando el registro (Task o Document) apunta a una entidad de tipo Kind
// y esa entidad satisface Match.
type Related struct {
	Kind  entity.Kind
	Match Predicate
}

func (Eq) isPredicate()      {}
func (In) isPredicate()      {}
func (Or) isPredicate()      {}
func (And) isPredicate()     {}
func (Related) isPredicate() {}

// InSet construye Field ∈ ids; un conjunto vacío produce None (fail-closed).
func InSet(field Field, ids []int64) Predicate {
	if len(ids) == 0 {
		return None()
	}
	values := append([]int64(nil), ids...)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	if len(values) == 1 {
		return Eq{Field: field, Value: values[0]}
	}
	return In{Field: field, Values: values}
}

// AnyOf une los términos simplificando: None se descarta y All absorbe todo.
func AnyOf(terms ...Predicate) Predicate {
	var kept []Predicate
	for _, t := range terms {
		switch {
		case t == nil, IsNone(t):
			continue
		case IsAll(t):
			return All()
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return None()
	case 1:
		return kept[0]
	}
	return Or{Terms: kept}
}

// AllOf intersecta los términos simplificando: All se descarta y None absorbe todo.
func AllOf(terms ...Predicate) Predicate {
	var kept []Predicate
	for _, t := range terms {
		switch {
		case t == nil, IsAll(t):
			continue
		case IsNone(t):
			return None()
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return All()
	case 1:
		return kept[0]
	}
	return And{Terms: kept}
}

// RelatedTo construye Related simplificando el caso en que Match es None.
func RelatedTo(kind entity.Kind, match Predicate) Predicate {
	if match == nil || IsNone(match) {
		return None()
	}
	return Related{Kind: kind, Match: match}
}
