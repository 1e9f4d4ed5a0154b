package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/crm-api/internal/application/access"
)

// Repositories conjunto de adaptadores atados a un mismo Querier (pool o tx).
type Repositories struct {
	Users         *UserRepo
	Regions       *RegionRepo
	Accounts      *AccountRepo
	Leads         *LeadRepo
	Opportunities *OpportunityRepo
	Contacts      *ContactRepo
	Tasks         *TaskRepo
	Documents     *DocumentRepo
	AuditLogs     *AuditLogRepo
}

// NewRepositories construye todos los adaptadores sobre q.
func NewRepositories(q Querier) Repositories {
	return Repositories{
		Users:         NewUserRepository(q),
		Regions:       NewRegionRepository(q),
		Accounts:      NewAccountRepository(q),
		Leads:         NewLeadRepository(q),
		Opportunities: NewOpportunityRepository(q),
		Contacts:      NewContactRepository(q),
		Tasks:         NewTaskRepository(q),
		Documents:     NewDocumentRepository(q),
		AuditLogs:     NewAuditLogRepository(q),
	}
}

// Stores vista de los repositorios que usa el motor de alcance.
func (r Repositories) Stores() access.Stores {
	return access.Stores{
		Accounts:      r.Accounts,
		Leads:         r.Leads,
		Opportunities: r.Opportunities,
		Contacts:      r.Contacts,
		Tasks:         r.Tasks,
		Documents:     r.Documents,
	}
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunInTx igual que Run, con la vista de repositorios del motor de alcance.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(access.Stores) error) error {
	return r.Run(ctx, func(repos Repositories) error { return fn(repos.Stores()) })
}
