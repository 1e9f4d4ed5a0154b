package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

var (
	_ repository.UserRepository        = (*UserRepo)(nil)
	_ repository.RegionRepository      = (*RegionRepo)(nil)
	_ repository.AccountRepository     = (*AccountRepo)(nil)
	_ repository.LeadRepository        = (*LeadRepo)(nil)
	_ repository.OpportunityRepository = (*OpportunityRepo)(nil)
	_ repository.ContactRepository     = (*ContactRepo)(nil)
	_ repository.TaskRepository        = (*TaskRepo)(nil)
	_ repository.DocumentRepository    = (*DocumentRepo)(nil)
	_ repository.AuditLogRepository    = (*AuditLogRepo)(nil)
)

// ── Users ────────────────────────────────────────────────────────────────────

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

func cloneUser(u *entity.User) *entity.User {
	out := *u
	out.PrimaryRegionID = clonePtr(u.PrimaryRegionID)
	out.SecondaryRegionIDs = append([]int64(nil), u.SecondaryRegionIDs...)
	return &out
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range sortedKeys(r.s.users) {
		if u := r.s.users[id]; strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) List(_ context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, id := range sortedKeys(r.s.users) {
		out = append(out, cloneUser(r.s.users[id]))
	}
	return out, nil
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if u.Email != "" && strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrConflict
		}
	}
	u.ID = r.s.id("users", u.ID)
	now := r.s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) UpdateRole(_ context.Context, id int64, role entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = r.s.now()
	return nil
}

// ── Regions ──────────────────────────────────────────────────────────────────

// RegionRepo regiones en memoria.
type RegionRepo struct{ s *Store }

func (r *RegionRepo) GetByID(_ context.Context, id int64) (*entity.Region, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if reg, ok := r.s.regions[id]; ok {
		out := *reg
		return &out, nil
	}
	return nil, nil
}

func (r *RegionRepo) ListByIDs(_ context.Context, ids []int64) ([]*entity.Region, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Region, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if reg, ok := r.s.regions[id]; ok {
			cp := *reg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *RegionRepo) List(_ context.Context) ([]*entity.Region, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Region, 0, len(r.s.regions))
	for _, id := range sortedKeys(r.s.regions) {
		cp := *r.s.regions[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *RegionRepo) Create(_ context.Context, reg *entity.Region) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg.ID = r.s.id("regions", reg.ID)
	cp := *reg
	r.s.regions[reg.ID] = &cp
	return nil
}

// ── Accounts ─────────────────────────────────────────────────────────────────

// AccountRepo cuentas en memoria.
type AccountRepo struct{ s *Store }

func (r *AccountRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.AccountFilter) ([]*entity.Account, error) {
	r.s.mu.RLock()
	rows := make([]*entity.Account, 0, len(r.s.accounts))
	for _, id := range sortedKeys(r.s.accounts) {
		rows = append(rows, r.s.readAccount(r.s.accounts[id]))
	}
	r.s.mu.RUnlock()

	out, err := filterScoped(ctx, r.s, p, rows, func(a *entity.Account) bool {
		if f.Status != "" && a.Status != f.Status {
			return false
		}
		if f.RegionID != nil && a.RegionID != *f.RegionID {
			return false
		}
		return f.SalesRepID == nil || eqPtr(a.SalesRepID, f.SalesRepID)
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Page), nil
}

func (r *AccountRepo) GetByID(_ context.Context, id int64) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.accounts[id]; ok {
		return r.s.readAccount(a), nil
	}
	return nil, nil
}

func (r *AccountRepo) Create(_ context.Context, a *entity.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id("accounts", a.ID)
	now := r.s.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	cp := *a
	cp.SalesRepID = clonePtr(a.SalesRepID)
	r.s.accounts[a.ID] = &cp
	return nil
}

func (r *AccountRepo) UpdateStatus(_ context.Context, id int64, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = at
	return nil
}

// Delete elimina la cuenta con sus contactos y oportunidades (ON DELETE CASCADE).
func (r *AccountRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.accounts, id)
	for cid, c := range r.s.contacts {
		if c.AccountID == id {
			delete(r.s.contacts, cid)
		}
	}
	for oid, o := range r.s.opps {
		if o.AccountID == id {
			delete(r.s.opps, oid)
		}
	}
	return nil
}

// ── Leads ────────────────────────────────────────────────────────────────────

// LeadRepo leads en memoria.
type LeadRepo struct{ s *Store }

func (r *LeadRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.LeadFilter) ([]*entity.Lead, error) {
	r.s.mu.RLock()
	rows := make([]*entity.Lead, 0, len(r.s.leads))
	for _, id := range sortedKeys(r.s.leads) {
		rows = append(rows, r.s.readLead(r.s.leads[id]))
	}
	r.s.mu.RUnlock()

	out, err := filterScoped(ctx, r.s, p, rows, func(l *entity.Lead) bool {
		if f.Status != "" && l.Status != f.Status {
			return false
		}
		return f.OwnerID == nil || eqPtr(l.OwnerID, f.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Page), nil
}

func (r *LeadRepo) GetByID(_ context.Context, id int64) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.leads[id]; ok {
		return r.s.readLead(l), nil
	}
	return nil, nil
}

func (r *LeadRepo) Create(_ context.Context, l *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id("leads", l.ID)
	now := r.s.now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	cp := *l
	cp.OwnerID = clonePtr(l.OwnerID)
	cp.RegionID = clonePtr(l.RegionID)
	cp.ConvertedAt = cloneTime(l.ConvertedAt)
	r.s.leads[l.ID] = &cp
	return nil
}

func (r *LeadRepo) MarkConverted(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = entity.LeadStatusConverted
	l.ConvertedAt = cloneTime(&at)
	l.UpdatedAt = at
	return nil
}

// ── Opportunities ────────────────────────────────────────────────────────────

// OpportunityRepo oportunidades en memoria.
type OpportunityRepo struct{ s *Store }

func (r *OpportunityRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.OpportunityFilter) ([]*entity.Opportunity, error) {
	r.s.mu.RLock()
	rows := make([]*entity.Opportunity, 0, len(r.s.opps))
	for _, id := range sortedKeys(r.s.opps) {
		rows = append(rows, r.s.readOpportunity(r.s.opps[id]))
	}
	r.s.mu.RUnlock()

	out, err := filterScoped(ctx, r.s, p, rows, func(o *entity.Opportunity) bool {
		if f.Stage != "" && o.Stage != f.Stage {
			return false
		}
		if f.OpenOnly && !o.IsOpen() {
			return false
		}
		if f.AccountID != nil && o.AccountID != *f.AccountID {
			return false
		}
		return f.OwnerID == nil || eqPtr(o.OwnerID, f.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Page), nil
}

func (r *OpportunityRepo) GetByID(_ context.Context, id int64) (*entity.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if o, ok := r.s.opps[id]; ok {
		return r.s.readOpportunity(o), nil
	}
	return nil, nil
}

func (r *OpportunityRepo) Create(_ context.Context, o *entity.Opportunity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o.ID = r.s.id("opportunities", o.ID)
	now := r.s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}
	cp := *o
	cp.OwnerID = clonePtr(o.OwnerID)
	cp.WonAt = cloneTime(o.WonAt)
	cp.LostAt = cloneTime(o.LostAt)
	r.s.opps[o.ID] = &cp
	return nil
}

func (r *OpportunityRepo) Update(_ context.Context, o *entity.Opportunity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.opps[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name = o.Name
	cur.Stage = o.Stage
	cur.Amount = o.Amount
	cur.OwnerID = clonePtr(o.OwnerID)
	cur.CloseDate = o.CloseDate
	cur.WonAt = cloneTime(o.WonAt)
	cur.LostAt = cloneTime(o.LostAt)
	cur.LostReason = o.LostReason
	cur.UpdatedAt = o.UpdatedAt
	return nil
}

// ── Contacts ─────────────────────────────────────────────────────────────────

// ContactRepo contactos en memoria.
type ContactRepo struct{ s *Store }

func (r *ContactRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.ContactFilter) ([]*entity.Contact, error) {
	r.s.mu.RLock()
	rows := make([]*entity.Contact, 0, len(r.s.contacts))
	for _, id := range sortedKeys(r.s.contacts) {
		rows = append(rows, r.s.readContact(r.s.contacts[id]))
	}
	r.s.mu.RUnlock()

	out, err := filterScoped(ctx, r.s, p, rows, func(c *entity.Contact) bool {
		return f.AccountID == nil || c.AccountID == *f.AccountID
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Page), nil
}

func (r *ContactRepo) GetByID(_ context.Context, id int64) (*entity.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.contacts[id]; ok {
		return r.s.readContact(c), nil
	}
	return nil, nil
}

func (r *ContactRepo) Create(_ context.Context, c *entity.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id("contacts", c.ID)
	now := r.s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	cp := *c
	r.s.contacts[c.ID] = &cp
	return nil
}

// ── Tasks ────────────────────────────────────────────────────────────────────

// TaskRepo tareas en memoria.
type TaskRepo struct{ s *Store }

func (r *TaskRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.TaskFilter) ([]*entity.Task, error) {
	r.s.mu.RLock()
	rows := make([]*entity.Task, 0, len(r.s.tasks))
	for _, id := range sortedKeys(r.s.tasks) {
		rows = append(rows, readTask(r.s.tasks[id]))
	}
	r.s.mu.RUnlock()

	out, err := filterScoped(ctx, r.s, p, rows, func(t *entity.Task) bool {
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		if f.AssignedToID != nil && !eqPtr(t.AssignedToID, f.AssignedToID) {
			return false
		}
		return f.Related == nil || t.Related == *f.Related
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Page), nil
}

func (r *TaskRepo) GetByID(_ context.Context, id int64) (*entity.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.tasks[id]; ok {
		return readTask(t), nil
	}
	return nil, nil
}

func (r *TaskRepo) Create(_ context.Context, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id("tasks", t.ID)
	now := r.s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.s.tasks[t.ID] = readTask(t)
	return nil
}

func (r *TaskRepo) Complete(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = entity.TaskStatusCompleted
	t.CompletedAt = cloneTime(&at)
	t.UpdatedAt = at
	return nil
}

// ── Documents ────────────────────────────────────────────────────────────────

// DocumentRepo documentos en memoria.
type DocumentRepo struct{ s *Store }

func (r *DocumentRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.DocumentFilter) ([]*entity.Document, error) {
	r.s.mu.RLock()
	rows := make([]*entity.Document, 0, len(r.s.docs))
	for _, id := range sortedKeys(r.s.docs) {
		rows = append(rows, readDocument(r.s.docs[id]))
	}
	r.s.mu.RUnlock()

	out, err := filterScoped(ctx, r.s, p, rows, func(d *entity.Document) bool {
		return f.Related == nil || d.Related == *f.Related
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Page), nil
}

func (r *DocumentRepo) GetByID(_ context.Context, id int64) (*entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if d, ok := r.s.docs[id]; ok {
		return readDocument(d), nil
	}
	return nil, nil
}

func (r *DocumentRepo) Create(_ context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = r.s.id("documents", d.ID)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.s.now()
	}
	r.s.docs[d.ID] = readDocument(d)
	return nil
}

// ── Audit logs ───────────────────────────────────────────────────────────────

// AuditLogRepo historial de auditoría en memoria.
type AuditLogRepo struct{ s *Store }

func cloneAuditLog(l *entity.AuditLog) *entity.AuditLog {
	out := *l
	if l.Details != nil {
		out.Details = make(map[string]any, len(l.Details))
		for k, v := range l.Details {
			out.Details[k] = v
		}
	}
	return &out
}

func (r *AuditLogRepo) Create(_ context.Context, l *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id("audit_logs", l.ID)
	if l.At.IsZero() {
		l.At = r.s.now()
	}
	if l.UserName == "" {
		if u, ok := r.s.users[l.UserID]; ok {
			l.UserName = u.Name
		}
	}
	r.s.audits[l.ID] = cloneAuditLog(l)
	return nil
}

// List más recientes primero; a igual fecha, el id mayor primero.
func (r *AuditLogRepo) List(_ context.Context, f repository.AuditLogFilter) ([]*entity.AuditLog, error) {
	r.s.mu.RLock()
	out := make([]*entity.AuditLog, 0, len(r.s.audits))
	for _, l := range r.s.audits {
		if f.UserID != nil && l.UserID != *f.UserID {
			continue
		}
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.EntityType != "" && !strings.EqualFold(l.EntityType, f.EntityType) {
			continue
		}
		if f.From != nil && l.At.Before(*f.From) {
			continue
		}
		if f.To != nil && l.At.After(*f.To) {
			continue
		}
		out = append(out, cloneAuditLog(l))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.After(out[j].At)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, f.Page), nil
}

func (r *AuditLogRepo) GetByID(_ context.Context, id int64) (*entity.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.audits[id]; ok {
		return cloneAuditLog(l), nil
	}
	return nil, nil
}
