package access

import (
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// ruleFunc construye el predicado de lectura de un tipo de entidad para un rol.
// regions solo viene calculado para Regional Lead.
type ruleFunc func(u ActingUser, regions RegionSet) scope.Predicate

// rules es la única tabla de alcance: tipo de entidad → rol → predicado.
// Un rol ausente de la tabla no ve nada.
var rules map[entity.Kind]map[entity.Role]ruleFunc

func init() {
	rules = map[entity.Kind]map[entity.Role]ruleFunc{
		entity.KindAccount: {
			entity.RoleSalesRep:     ownedBy(scope.FieldSalesRepID),
			entity.RoleRegionalLead: inRegions(scope.FieldRegionID),
			entity.RoleSuperAdmin:   unrestricted,
		},
		entity.KindLead: {
			entity.RoleSalesRep:     ownedBy(scope.FieldOwnerID),
			entity.RoleRegionalLead: inRegions(scope.FieldLeadRegion),
			entity.RoleSuperAdmin:   unrestricted,
		},
		entity.KindOpportunity: {
			entity.RoleSalesRep:     ownedBy(scope.FieldAccountSalesRepID),
			entity.RoleRegionalLead: inRegions(scope.FieldAccountRegionID),
			entity.RoleSuperAdmin:   unrestricted,
		},
		entity.KindContact: {
			entity.RoleSalesRep:     ownedBy(scope.FieldAccountSalesRepID),
			entity.RoleRegionalLead: inRegions(scope.FieldAccountRegionID),
			entity.RoleSuperAdmin:   unrestricted,
		},
		entity.KindTask: {
			entity.RoleSalesRep:     taskRule,
			entity.RoleRegionalLead: taskRule,
			entity.RoleSuperAdmin:   unrestricted,
		},
		entity.KindDocument: {
			entity.RoleSalesRep:     viaRelated,
			entity.RoleRegionalLead: viaRelated,
			entity.RoleSuperAdmin:   unrestricted,
		},
	}
}

// relatedKinds tipos que Task y Document pueden referenciar.
var relatedKinds = []entity.Kind{entity.KindLead, entity.KindAccount, entity.KindOpportunity}

func unrestricted(ActingUser, RegionSet) scope.Predicate { return scope.All() }

func ownedBy(f scope.Field) ruleFunc {
	return func(u ActingUser, _ RegionSet) scope.Predicate {
		return scope.Eq{Field: f, Value: u.ID}
	}
}

func inRegions(f scope.Field) ruleFunc {
	return func(_ ActingUser, regions RegionSet) scope.Predicate {
		if regions.IsAll() {
			return scope.All()
		}
		return scope.InSet(f, regions.IDs())
	}
}

// viaRelated hereda el alcance de la entidad relacionada.
func viaRelated(u ActingUser, regions RegionSet) scope.Predicate {
	terms := make([]scope.Predicate, 0, len(relatedKinds))
	for _, k := range relatedKinds {
		terms = append(terms, scope.RelatedTo(k, predicateFor(k, u, regions)))
	}
	return scope.AnyOf(terms...)
}

// taskRule añade a viaRelated la unión forzada "asignada a mí".
func taskRule(u ActingUser, regions RegionSet) scope.Predicate {
	return scope.AnyOf(
		viaRelated(u, regions),
		scope.Eq{Field: scope.FieldAssignedToID, Value: u.ID},
	)
}

func predicateFor(kind entity.Kind, u ActingUser, regions RegionSet) scope.Predicate {
	byRole, ok := rules[kind]
	if !ok {
		return scope.None()
	}
	rule, ok := byRole[u.Role]
	if !ok {
		return scope.None()
	}
	return rule(u, regions)
}
