// Package memory implementa los repositorios sobre mapas en memoria.
// Lo usan los tests y el driver STORE_DRIVER=memory (demo con datos sintéticos).
// Los predicados de alcance se evalúan con scope.Matches, la misma semántica que el
// compilador SQL de postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu       sync.RWMutex
	nextID   map[string]int64
	users    map[int64]*entity.User
	regions  map[int64]*entity.Region
	accounts map[int64]*entity.Account
	leads    map[int64]*entity.Lead
	opps     map[int64]*entity.Opportunity
	contacts map[int64]*entity.Contact
	tasks    map[int64]*entity.Task
	docs     map[int64]*entity.Document
	audits   map[int64]*entity.AuditLog

	// txMu serializa RunInTx.
	txMu sync.Mutex

	// now permite fijar el reloj en tests.
	now func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		nextID:   make(map[string]int64),
		users:    make(map[int64]*entity.User),
		regions:  make(map[int64]*entity.Region),
		accounts: make(map[int64]*entity.Account),
		leads:    make(map[int64]*entity.Lead),
		opps:     make(map[int64]*entity.Opportunity),
		contacts: make(map[int64]*entity.Contact),
		tasks:    make(map[int64]*entity.Task),
		docs:     make(map[int64]*entity.Document),
		audits:   make(map[int64]*entity.AuditLog),
		now:      time.Now,
	}
}

// SetClock fija el reloj usado para created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Repositorios ---------------------------------------------------------------

func (s *Store) Users() *UserRepo                { return &UserRepo{s: s} }
func (s *Store) Regions() *RegionRepo            { return &RegionRepo{s: s} }
func (s *Store) Accounts() *AccountRepo          { return &AccountRepo{s: s} }
func (s *Store) Leads() *LeadRepo                { return &LeadRepo{s: s} }
func (s *Store) Opportunities() *OpportunityRepo { return &OpportunityRepo{s: s} }
func (s *Store) Contacts() *ContactRepo          { return &ContactRepo{s: s} }
func (s *Store) Tasks() *TaskRepo                { return &TaskRepo{s: s} }
func (s *Store) Documents() *DocumentRepo        { return &DocumentRepo{s: s} }
func (s *Store) AuditLogs() *AuditLogRepo        { return &AuditLogRepo{s: s} }

// Stores vista de los repositorios que usa el motor de alcance.
func (s *Store) Stores() access.Stores {
	return access.Stores{
		Accounts:      s.Accounts(),
		Leads:         s.Leads(),
		Opportunities: s.Opportunities(),
		Contacts:      s.Contacts(),
		Tasks:         s.Tasks(),
		Documents:     s.Documents(),
	}
}

// RunInTx ejecuta fn sobre el almacén; si fn devuelve error se restaura el estado previo.
// Las escrituras concurrentes hechas fuera de RunInTx durante fn también se descartan.
func (s *Store) RunInTx(_ context.Context, fn func(access.Stores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s.Stores()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// id asigna el siguiente id de la tabla, o respeta uno explícito. Requiere el lock de escritura.
func (s *Store) id(table string, explicit int64) int64 {
	if explicit > 0 {
		if explicit > s.nextID[table] {
			s.nextID[table] = explicit
		}
		return explicit
	}
	s.nextID[table]++
	return s.nextID[table]
}

// resolver evalúa Related contra el almacén.
type resolver struct{ s *Store }

func (r resolver) Resolve(_ context.Context, ref entity.RelatedEntity) (any, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	switch ref.Kind {
	case entity.KindAccount:
		if a, ok := r.s.accounts[ref.ID]; ok {
			return r.s.readAccount(a), nil
		}
	case entity.KindLead:
		if l, ok := r.s.leads[ref.ID]; ok {
			return r.s.readLead(l), nil
		}
	case entity.KindOpportunity:
		if o, ok := r.s.opps[ref.ID]; ok {
			return r.s.readOpportunity(o), nil
		}
	}
	return nil, nil
}

// filterScoped aplica el predicado de alcance a una instantánea ya copiada (sin lock).
func filterScoped[T any](ctx context.Context, s *Store, p scope.Predicate, rows []*T, keep func(*T) bool) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		if keep != nil && !keep(row) {
			continue
		}
		ok, err := scope.Matches(ctx, p, row, resolver{s: s})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func paginate[T any](rows []*T, p repository.Page) []*T {
	if p.Offset > 0 {
		if p.Offset >= len(rows) {
			return []*T{}
		}
		rows = rows[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows
}

func sortedKeys[T any](m map[int64]T) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func eqPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clonePtr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ── Modelos de lectura (requieren lock de lectura) ──────────────────────────

func (s *Store) readAccount(a *entity.Account) *entity.Account {
	out := *a
	out.SalesRepID = clonePtr(a.SalesRepID)
	if r, ok := s.regions[a.RegionID]; ok {
		out.RegionName = r.Name
	}
	if a.SalesRepID != nil {
		if u, ok := s.users[*a.SalesRepID]; ok {
			out.SalesRepName = u.Name
		}
	}
	return &out
}

func (s *Store) readLead(l *entity.Lead) *entity.Lead {
	out := *l
	out.OwnerID = clonePtr(l.OwnerID)
	out.RegionID = clonePtr(l.RegionID)
	out.ConvertedAt = cloneTime(l.ConvertedAt)
	out.OwnerRegionID = nil
	out.OwnerName = ""
	if l.OwnerID != nil {
		if u, ok := s.users[*l.OwnerID]; ok {
			out.OwnerRegionID = clonePtr(u.PrimaryRegionID)
			out.OwnerName = u.Name
		}
	}
	return &out
}

func (s *Store) readOpportunity(o *entity.Opportunity) *entity.Opportunity {
	out := *o
	out.OwnerID = clonePtr(o.OwnerID)
	out.WonAt = cloneTime(o.WonAt)
	out.LostAt = cloneTime(o.LostAt)
	out.AccountName, out.AccountRegionID, out.AccountSalesRepID, out.RegionName, out.OwnerName = "", 0, nil, "", ""
	if a, ok := s.accounts[o.AccountID]; ok {
		out.AccountName = a.Name
		out.AccountRegionID = a.RegionID
		out.AccountSalesRepID = clonePtr(a.SalesRepID)
		if r, ok := s.regions[a.RegionID]; ok {
			out.RegionName = r.Name
		}
	}
	if o.OwnerID != nil {
		if u, ok := s.users[*o.OwnerID]; ok {
			out.OwnerName = u.Name
		}
	}
	return &out
}

func (s *Store) readContact(c *entity.Contact) *entity.Contact {
	out := *c
	out.AccountName, out.AccountRegionID, out.AccountSalesRepID = "", 0, nil
	if a, ok := s.accounts[c.AccountID]; ok {
		out.AccountName = a.Name
		out.AccountRegionID = a.RegionID
		out.AccountSalesRepID = clonePtr(a.SalesRepID)
	}
	return &out
}

func readTask(t *entity.Task) *entity.Task {
	out := *t
	out.AssignedToID = clonePtr(t.AssignedToID)
	out.CreatedByID = clonePtr(t.CreatedByID)
	out.DueDate = cloneTime(t.DueDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	return &out
}

func readDocument(d *entity.Document) *entity.Document {
	out := *d
	out.UploadedByID = clonePtr(d.UploadedByID)
	return &out
}

// ── Transacciones ───────────────────────────────────────────────────────────

type snapshot struct {
	nextID   map[string]int64
	users    map[int64]*entity.User
	regions  map[int64]*entity.Region
	accounts map[int64]*entity.Account
	leads    map[int64]*entity.Lead
	opps     map[int64]*entity.Opportunity
	contacts map[int64]*entity.Contact
	tasks    map[int64]*entity.Task
	docs     map[int64]*entity.Document
	audits   map[int64]*entity.AuditLog
}

func cloneMap[T any](m map[int64]*T, clone func(*T) *T) map[int64]*T {
	out := make(map[int64]*T, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func copyOf[T any](v *T) *T {
	out := *v
	return &out
}

func cloneAccount(a *entity.Account) *entity.Account {
	out := *a
	out.SalesRepID = clonePtr(a.SalesRepID)
	return &out
}

func cloneLead(l *entity.Lead) *entity.Lead {
	out := *l
	out.OwnerID = clonePtr(l.OwnerID)
	out.RegionID = clonePtr(l.RegionID)
	out.ConvertedAt = cloneTime(l.ConvertedAt)
	return &out
}

func cloneOpportunity(o *entity.Opportunity) *entity.Opportunity {
	out := *o
	out.OwnerID = clonePtr(o.OwnerID)
	out.WonAt = cloneTime(o.WonAt)
	out.LostAt = cloneTime(o.LostAt)
	return &out
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]int64, len(s.nextID))
	for k, v := range s.nextID {
		ids[k] = v
	}
	return snapshot{
		nextID:   ids,
		users:    cloneMap(s.users, cloneUser),
		regions:  cloneMap(s.regions, copyOf[entity.Region]),
		accounts: cloneMap(s.accounts, cloneAccount),
		leads:    cloneMap(s.leads, cloneLead),
		opps:     cloneMap(s.opps, cloneOpportunity),
		contacts: cloneMap(s.contacts, copyOf[entity.Contact]),
		tasks:    cloneMap(s.tasks, readTask),
		docs:     cloneMap(s.docs, readDocument),
		audits:   cloneMap(s.audits, cloneAuditLog),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users, s.regions, s.accounts, s.leads = snap.users, snap.regions, snap.accounts, snap.leads
	s.opps, s.contacts, s.tasks, s.docs, s.audits = snap.opps, snap.contacts, snap.tasks, snap.docs, snap.audits
}
