package access

import (
	"context"
	"sort"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// RegionSet conjunto efectivo de regiones de un usuario. El valor cero es el conjunto vacío.
type RegionSet struct {
	all bool
	ids []int64
}

// AllRegions centinela "todas las regiones" (Super Admin).
func AllRegions() RegionSet { return RegionSet{all: true} }

// RegionsOf construye un conjunto sin duplicados y ordenado.
func RegionsOf(ids ...int64) RegionSet {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return RegionSet{ids: out}
}

// IsAll indica el centinela "todas".
func (s RegionSet) IsAll() bool { return s.all }

// IsEmpty indica que el usuario no puede actuar en ninguna región.
func (s RegionSet) IsEmpty() bool { return !s.all && len(s.ids) == 0 }

// Contains indica si la región pertenece al conjunto.
func (s RegionSet) Contains(id int64) bool {
	if s.all {
		return true
	}
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	return i < len(s.ids) && s.ids[i] == id
}

// IDs devuelve una copia de los ids (nil para el centinela "todas").
func (s RegionSet) IDs() []int64 {
	if s.all {
		return nil
	}
	return append([]int64(nil), s.ids...)
}

// RegionResolver calcula el conjunto efectivo de regiones de un usuario.
type RegionResolver struct {
	users repository.UserRepository
	log   *logger.Logger
}

// NewRegionResolver construye el resolver.
func NewRegionResolver(users repository.UserRepository, log *logger.Logger) *RegionResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &RegionResolver{users: users, log: log}
}

// EffectiveRegions:
//   - Super Admin: todas.
//   - Regional Lead: principal ∪ secundarias; vacío si no tiene ninguna (nunca "todas").
//   - Sales Rep: solo la principal (informativo; su alcance es por propiedad directa).
//
// Si el usuario no se puede cargar, no existe o está inactivo devuelve el conjunto vacío.
func (r *RegionResolver) EffectiveRegions(ctx context.Context, u ActingUser) RegionSet {
	if u.IsSuperAdmin() {
		return AllRegions()
	}
	_, set, err := r.Membership(ctx, u)
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", u.ID).Msg("regiones efectivas: no se pudo cargar el usuario")
		return RegionSet{}
	}
	return set
}

// Membership carga el usuario y su conjunto efectivo. A diferencia de EffectiveRegions
// devuelve el error de almacenamiento; user es nil si no existe o está inactivo.
func (r *RegionResolver) Membership(ctx context.Context, u ActingUser) (*entity.User, RegionSet, error) {
	user, err := r.users.GetByID(ctx, u.ID)
	if err != nil {
		return nil, RegionSet{}, err
	}
	if user == nil || !user.Active {
		r.log.Warn().Int64("user_id", u.ID).Msg("regiones efectivas: usuario inexistente o inactivo")
		return nil, RegionSet{}, nil
	}
	return user, RegionsForUser(user, u.Role), nil
}

// RegionsForUser aplica la regla de membresía a un usuario ya cargado.
func RegionsForUser(user *entity.User, role entity.Role) RegionSet {
	switch role {
	case entity.RoleSuperAdmin:
		return AllRegions()
	case entity.RoleRegionalLead:
		ids := append([]int64(nil), user.SecondaryRegionIDs...)
		if user.PrimaryRegionID != nil {
			ids = append(ids, *user.PrimaryRegionID)
		}
		return RegionsOf(ids...)
	case entity.RoleSalesRep:
		if user.PrimaryRegionID != nil {
			return RegionsOf(*user.PrimaryRegionID)
		}
	}
	return RegionSet{}
}
