package scope

import (
	"context"
	"fmt"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// Resolver carga la entidad referenciada por un Task o Document.
// Devuelve (nil, nil) cuando la entidad no existe.
type Resolver interface {
	Resolve(ctx context.Context, ref entity.RelatedEntity) (any, error)
}

// Matches evalúa p contra un registro ya cargado (*entity.Account, *entity.Lead, ...).
// Un tipo de registro o campo desconocido nunca coincide.
func Matches(ctx context.Context, p Predicate, rec any, r Resolver) (bool, error) {
	switch q := p.(type) {
	case allPredicate:
		return true, nil
	case nonePredicate:
		return false, nil
	case Eq:
		v, ok := FieldValue(rec, q.Field)
		return ok && v == q.Value, nil
	case In:
		v, ok := FieldValue(rec, q.Field)
		if !ok {
			return false, nil
		}
		for _, want := range q.Values {
			if v == want {
				return true, nil
			}
		}
		return false, nil
	case Or:
		for _, t := range q.Terms {
			ok, err := Matches(ctx, t, rec, r)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case And:
		for _, t := range q.Terms {
			ok, err := Matches(ctx, t, rec, r)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Related:
		ref, ok := relatedOf(rec)
		if !ok || ref.Kind != q.Kind {
			return false, nil
		}
		if r == nil {
			return false, fmt.Errorf("scope: sin resolver para %s", ref.Kind)
		}
		target, err := r.Resolve(ctx, ref)
		if err != nil {
			return false, err
		}
		if target == nil {
			return false, nil
		}
		return Matches(ctx, q.Match, target, r)
	}
	return false, fmt.Errorf("scope: predicado desconocido %T", p)
}

// FieldValue extrae el valor de un campo lógico; ok=false cuando el campo es nulo o no aplica.
func FieldValue(rec any, f Field) (int64, bool) {
	switch v := rec.(type) {
	case *entity.Account:
		switch f {
		case FieldSalesRepID:
			return deref(v.SalesRepID)
		case FieldRegionID:
			return v.RegionID, v.RegionID != 0
		}
	case *entity.Lead:
		switch f {
		case FieldOwnerID:
			return deref(v.OwnerID)
		case FieldLeadRegion:
			return deref(v.EffectiveRegionID())
		}
	case *entity.Opportunity:
		switch f {
		case FieldAccountSalesRepID:
			return deref(v.AccountSalesRepID)
		case FieldAccountRegionID:
			return v.AccountRegionID, v.AccountRegionID != 0
		}
	case *entity.Contact:
		switch f {
		case FieldAccountSalesRepID:
			return deref(v.AccountSalesRepID)
		case FieldAccountRegionID:
			return v.AccountRegionID, v.AccountRegionID != 0
		}
	case *entity.Task:
		if f == FieldAssignedToID {
			return deref(v.AssignedToID)
		}
	}
	return 0, false
}

func relatedOf(rec any) (entity.RelatedEntity, bool) {
	switch v := rec.(type) {
	case *entity.Task:
		return v.Related, !v.Related.IsZero()
	case *entity.Document:
		return v.Related, !v.Related.IsZero()
	}
	return entity.RelatedEntity{}, false
}

func deref(p *int64) (int64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
