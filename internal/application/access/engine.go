package access

import (
	"context"
	"fmt"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// Stores repositorios que el motor usa para los chequeos puntuales.
type Stores struct {
	Accounts      repository.AccountRepository
	Leads         repository.LeadRepository
	Opportunities repository.OpportunityRepository
	Contacts      repository.ContactRepository
	Tasks         repository.TaskRepository
	Documents     repository.DocumentRepository
}

// DenialRecorder recibe cada chequeo denegado (métricas).
type DenialRecorder interface {
	RecordAccessDenied(kind, role string)
}

// Engine motor de alcance: predicados de listado y chequeos puntuales.
type Engine struct {
	regions *RegionResolver
	stores  Stores
	log     *logger.Logger
	denials DenialRecorder
	policy  OpportunityPolicy
}

var _ scope.Resolver = (*Engine)(nil)

// Option configuración opcional del motor.
type Option func(*Engine)

// WithDenialRecorder registra los chequeos denegados (ej. métricas Prometheus).
func WithDenialRecorder(r DenialRecorder) Option {
	return func(e *Engine) { e.denials = r }
}

// WithOpportunityPolicy reemplaza la política de mutación de oportunidades.
func WithOpportunityPolicy(p OpportunityPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// NewEngine construye el motor con DefaultOpportunityPolicy.
func NewEngine(regions *RegionResolver, stores Stores, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{regions: regions, stores: stores, log: log, policy: DefaultOpportunityPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Regions expone el resolver de membresía.
func (e *Engine) Regions() *RegionResolver { return e.regions }

// ListFilter predicado de lectura para (usuario, tipo de entidad).
func (e *Engine) ListFilter(ctx context.Context, u ActingUser, kind entity.Kind) scope.Predicate {
	var regions RegionSet
	if u.Role == entity.RoleRegionalLead {
		regions = e.regions.EffectiveRegions(ctx, u)
	}
	return predicateFor(kind, u, regions)
}

// Authorize chequeo puntual:
//   - nil si el registro existe y está en alcance
//   - domain.ErrNotFound si no existe
//   - domain.ErrForbidden si existe pero está fuera de alcance
//   - un error que envuelve domain.ErrUnavailable si falla el almacenamiento
func (e *Engine) Authorize(ctx context.Context, u ActingUser, kind entity.Kind, id int64) error {
	rec, err := e.load(ctx, kind, id)
	if err != nil {
		return err
	}
	return e.Check(ctx, u, kind, rec)
}

// CanAccess versión booleana de Authorize; cualquier error cuenta como denegado.
func (e *Engine) CanAccess(ctx context.Context, u ActingUser, kind entity.Kind, id int64) bool {
	return e.Authorize(ctx, u, kind, id) == nil
}

// Check evalúa el predicado de lectura sobre un registro ya cargado.
// rec nil (o puntero nil) equivale a "no existe".
func (e *Engine) Check(ctx context.Context, u ActingUser, kind entity.Kind, rec any) error {
	if isNilRecord(rec) {
		return domain.ErrNotFound
	}
	ok, err := scope.Matches(ctx, e.ListFilter(ctx, u, kind), rec, e)
	if err != nil {
		return domain.Unavailable(fmt.Sprintf("alcance %s", kind), err)
	}
	if !ok {
		if e.denials != nil {
			e.denials.RecordAccessDenied(string(kind), string(u.Role))
		}
		e.log.Debug().Str("kind", string(kind)).Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("acceso denegado")
		return domain.ErrForbidden
	}
	return nil
}

// Resolve implementa scope.Resolver para Task/Document.
func (e *Engine) Resolve(ctx context.Context, ref entity.RelatedEntity) (any, error) {
	rec, err := e.load(ctx, ref.Kind, ref.ID)
	if err != nil {
		return nil, err
	}
	if isNilRecord(rec) {
		return nil, nil
	}
	return rec, nil
}

// load carga un registro por tipo. Devuelve un nil sin tipo cuando no existe.
func (e *Engine) load(ctx context.Context, kind entity.Kind, id int64) (any, error) {
	var (
		rec any
		err error
	)
	switch kind {
	case entity.KindAccount:
		rec, err = nilIfAbsent(e.stores.Accounts.GetByID(ctx, id))
	case entity.KindLead:
		rec, err = nilIfAbsent(e.stores.Leads.GetByID(ctx, id))
	case entity.KindOpportunity:
		rec, err = nilIfAbsent(e.stores.Opportunities.GetByID(ctx, id))
	case entity.KindContact:
		rec, err = nilIfAbsent(e.stores.Contacts.GetByID(ctx, id))
	case entity.KindTask:
		rec, err = nilIfAbsent(e.stores.Tasks.GetByID(ctx, id))
	case entity.KindDocument:
		rec, err = nilIfAbsent(e.stores.Documents.GetByID(ctx, id))
	default:
		return nil, fmt.Errorf("access: tipo de entidad desconocido %q", kind)
	}
	if err != nil {
		return nil, domain.Unavailable(fmt.Sprintf("cargar %s %d", kind, id), err)
	}
	return rec, nil
}

func nilIfAbsent[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

func isNilRecord(rec any) bool {
	switch v := rec.(type) {
	case nil:
		return true
	case *entity.Account:
		return v == nil
	case *entity.Lead:
		return v == nil
	case *entity.Opportunity:
		return v == nil
	case *entity.Contact:
		return v == nil
	case *entity.Task:
		return v == nil
	case *entity.Document:
		return v == nil
	}
	return false
}
