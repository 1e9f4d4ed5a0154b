// Package seed genera un CRM de demostración con datos sintéticos (gofakeit).
// Escribe solo a través de los puertos de repositorio, así sirve tanto para el driver
// memory como para una base postgres recién migrada.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// DemoPassword contraseña de todos los usuarios generados.
const DemoPassword = "demo1234"

// AdminEmail usuario Super Admin; su existencia marca la base como ya sembrada.
const AdminEmail = "admin@crm.local"

// ErrAlreadySeeded la base ya contiene los datos de demostración.
var ErrAlreadySeeded = errors.New("seed: datos de demostración ya cargados")

// RegionNames regiones creadas, en orden.
var RegionNames = []string{"Norte", "Sur", "Centro", "Occidente"}

// Repos puertos de escritura usados por el seed.
type Repos struct {
	Users         repository.UserRepository
	Regions       repository.RegionRepository
	Accounts      repository.AccountRepository
	Leads         repository.LeadRepository
	Opportunities repository.OpportunityRepository
	Contacts      repository.ContactRepository
	Tasks         repository.TaskRepository
	Documents     repository.DocumentRepository
}

// Options parámetros de generación.
type Options struct {
	AccountsPerRegion int
	RepsPerRegion     int
	// Seed fija el generador pseudoaleatorio; la misma semilla produce los mismos datos.
	Seed int64
	Now  func() time.Time
}

// Summary lo que se creó.
type Summary struct {
	Regions       int
	Users         int
	Accounts      int
	Leads         int
	Opportunities int
	Contacts      int
	Tasks         int
	Documents     int
	Logins        []Login
}

// Login credenciales de un usuario generado.
type Login struct {
	Email string
	Role  entity.Role
}

// Seeder genera los datos.
type Seeder struct {
	repos Repos
	opts  Options
	log   *logger.Logger
	fake  *gofakeit.Faker
	now   time.Time
	hash  string
	sum   Summary
}

// New construye el seeder con valores por defecto para las opciones vacías.
func New(repos Repos, opts Options, log *logger.Logger) *Seeder {
	if opts.AccountsPerRegion <= 0 {
		opts.AccountsPerRegion = 6
	}
	if opts.RepsPerRegion <= 0 {
		opts.RepsPerRegion = 2
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{repos: repos, opts: opts, log: log, fake: gofakeit.New(opts.Seed)}
}

// team usuarios de una región.
type team struct {
	region int64
	lead   *entity.User
	reps   []*entity.User
}

// Run crea regiones, usuarios de los tres roles y la cartera comercial de cada región.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	existing, err := s.repos.Users.GetByEmail(ctx, AdminEmail)
	if err != nil {
		return nil, fmt.Errorf("seed: verificar admin: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadySeeded
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed: hash: %w", err)
	}
	s.hash = string(hash)
	s.now = s.opts.Now().UTC()
	s.sum = Summary{}

	regionIDs := make([]int64, 0, len(RegionNames))
	for _, name := range RegionNames {
		r := &entity.Region{Name: name}
		if err := s.repos.Regions.Create(ctx, r); err != nil {
			return nil, fmt.Errorf("seed: región %s: %w", name, err)
		}
		regionIDs = append(regionIDs, r.ID)
		s.sum.Regions++
	}

	if _, err := s.user(ctx, "Administrador CRM", AdminEmail, entity.RoleSuperAdmin, nil, nil); err != nil {
		return nil, err
	}

	teams := make([]team, 0, len(regionIDs))
	for i, regionID := range regionIDs {
		region := regionID
		slug := strings.ToLower(RegionNames[i])
		// el líder de la primera región cubre también la segunda
		var secondary []int64
		if i == 0 && len(regionIDs) > 1 {
			secondary = []int64{regionIDs[1]}
		}
		lead, err := s.user(ctx, s.fake.Name(), "lider."+slug+"@crm.local", entity.RoleRegionalLead, &region, secondary)
		if err != nil {
			return nil, err
		}
		t := team{region: regionID, lead: lead}
		for n := 1; n <= s.opts.RepsPerRegion; n++ {
			rep, err := s.user(ctx, s.fake.Name(), fmt.Sprintf("vendedor%d.%s@crm.local", n, slug), entity.RoleSalesRep, &region, nil)
			if err != nil {
				return nil, err
			}
			t.reps = append(t.reps, rep)
		}
		teams = append(teams, t)
	}

	for _, t := range teams {
		if err := s.portfolio(ctx, t); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Int("regions", s.sum.Regions).
		Int("users", s.sum.Users).
		Int("accounts", s.sum.Accounts).
		Int("opportunities", s.sum.Opportunities).
		Msg("datos de demostración cargados")
	out := s.sum
	return &out, nil
}

func (s *Seeder) user(ctx context.Context, name, email string, role entity.Role, primary *int64, secondary []int64) (*entity.User, error) {
	u := &entity.User{
		Name:               name,
		Email:              email,
		PasswordHash:       s.hash,
		Role:               role,
		PrimaryRegionID:    primary,
		SecondaryRegionIDs: secondary,
		Active:             true,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("seed: usuario %s: %w", email, err)
	}
	s.sum.Users++
	s.sum.Logins = append(s.sum.Logins, Login{Email: email, Role: role})
	return u, nil
}

var (
	accountStatuses = []string{entity.AccountStatusActive, entity.AccountStatusActive, entity.AccountStatusProspect, entity.AccountStatusPendingApproval, entity.AccountStatusInactive}
	openStages      = []string{entity.StageProspecting, entity.StageProposal, entity.StageNegotiation}
	leadStatuses    = []string{entity.LeadStatusNew, entity.LeadStatusContacted, entity.LeadStatusQualified, entity.LeadStatusUnqualified}
	leadSources     = []string{"Web", "Referido", "Evento", "Llamada en frío", "LinkedIn"}
	lostReasons     = []string{"Precio", "Competencia", "Sin presupuesto", "Sin respuesta"}
	taskTypes       = []string{"Llamada", "Reunión", "Correo"}
	taskStatuses    = []string{entity.TaskStatusOpen, entity.TaskStatusInProgress, entity.TaskStatusCompleted}
	priorities      = []string{"High", "Medium", "Low"}
)

func (s *Seeder) pick(values []string) string { return values[s.fake.Number(0, len(values)-1)] }

func (s *Seeder) daysAgo(min, max int) time.Time {
	return s.now.Add(-time.Duration(s.fake.Number(min, max)) * 24 * time.Hour)
}

// portfolio cuentas de la región repartidas entre sus vendedores, cada una con contactos,
// oportunidades, tareas y documentos. Los leads quedan la mitad sin responsable.
func (s *Seeder) portfolio(ctx context.Context, t team) error {
	for i := 0; i < s.opts.AccountsPerRegion; i++ {
		rep := t.reps[i%len(t.reps)]
		repID := rep.ID
		acc := &entity.Account{
			Name:       s.fake.Company(),
			Industry:   s.fake.BuzzWord(),
			Website:    s.fake.URL(),
			Phone:      s.fake.Phone(),
			RegionID:   t.region,
			SalesRepID: &repID,
			Status:     accountStatuses[i%len(accountStatuses)],
		}
		if err := s.repos.Accounts.Create(ctx, acc); err != nil {
			return fmt.Errorf("seed: cuenta %s: %w", acc.Name, err)
		}
		s.sum.Accounts++

		for c, n := 0, s.fake.Number(1, 3); c < n; c++ {
			contact := &entity.Contact{
				AccountID: acc.ID,
				FirstName: s.fake.FirstName(),
				LastName:  s.fake.LastName(),
				Email:     s.fake.Email(),
				Phone:     s.fake.Phone(),
				Title:     s.fake.JobTitle(),
			}
			if err := s.repos.Contacts.Create(ctx, contact); err != nil {
				return fmt.Errorf("seed: contacto: %w", err)
			}
			s.sum.Contacts++
		}

		for o, n := 0, s.fake.Number(1, 3); o < n; o++ {
			opp, err := s.opportunity(ctx, acc, rep)
			if err != nil {
				return err
			}
			if err := s.activity(ctx, entity.RelatedEntity{Kind: entity.KindOpportunity, ID: opp.ID}, &repID); err != nil {
				return err
			}
			doc := &entity.Document{
				Name:         fmt.Sprintf("propuesta-%d.pdf", opp.ID),
				Type:         "Propuesta",
				Status:       "Borrador",
				URL:          fmt.Sprintf("https://docs.crm.local/opportunities/%d/propuesta.pdf", opp.ID),
				UploadedByID: &repID,
				Related:      entity.RelatedEntity{Kind: entity.KindOpportunity, ID: opp.ID},
			}
			if err := s.repos.Documents.Create(ctx, doc); err != nil {
				return fmt.Errorf("seed: documento: %w", err)
			}
			s.sum.Documents++
		}
		if err := s.activity(ctx, entity.RelatedEntity{Kind: entity.KindAccount, ID: acc.ID}, &repID); err != nil {
			return err
		}
	}

	for i := 0; i < s.opts.AccountsPerRegion; i++ {
		region := t.region
		lead := &entity.Lead{
			Name:     s.fake.Name(),
			Company:  s.fake.Company(),
			Email:    s.fake.Email(),
			Phone:    s.fake.Phone(),
			Source:   s.pick(leadSources),
			Status:   s.pick(leadStatuses),
			RegionID: &region,
		}
		if i%2 == 0 {
			owner := t.reps[i%len(t.reps)].ID
			lead.OwnerID = &owner
		}
		if err := s.repos.Leads.Create(ctx, lead); err != nil {
			return fmt.Errorf("seed: lead: %w", err)
		}
		s.sum.Leads++
		if err := s.activity(ctx, entity.RelatedEntity{Kind: entity.KindLead, ID: lead.ID}, lead.OwnerID); err != nil {
			return err
		}
	}
	return nil
}

// opportunity una de cada cuatro queda cerrada; algunas abiertas quedan sin actividad reciente.
func (s *Seeder) opportunity(ctx context.Context, acc *entity.Account, rep *entity.User) (*entity.Opportunity, error) {
	ownerID := rep.ID
	created := s.daysAgo(10, 120)
	opp := &entity.Opportunity{
		Name:      fmt.Sprintf("%s · %s", acc.Name, s.fake.BuzzWord()),
		AccountID: acc.ID,
		Stage:     s.pick(openStages),
		Amount:    decimal.NewFromInt(int64(s.fake.Number(20, 2500)) * 100),
		OwnerID:   &ownerID,
		CloseDate: s.now.Add(time.Duration(s.fake.Number(-30, 60)) * 24 * time.Hour).Truncate(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: s.daysAgo(0, 40),
	}
	if opp.UpdatedAt.Before(created) {
		opp.UpdatedAt = created
	}
	switch s.fake.Number(0, 7) {
	case 0:
		closed := s.daysAgo(1, 45)
		opp.Stage, opp.WonAt, opp.CloseDate = entity.StageClosedWon, &closed, closed
		opp.UpdatedAt = closed
	case 1:
		closed := s.daysAgo(1, 45)
		opp.Stage, opp.LostAt, opp.LostReason = entity.StageClosedLost, &closed, s.pick(lostReasons)
		opp.UpdatedAt = closed
	}
	if err := s.repos.Opportunities.Create(ctx, opp); err != nil {
		return nil, fmt.Errorf("seed: oportunidad: %w", err)
	}
	s.sum.Opportunities++
	return opp, nil
}

func (s *Seeder) activity(ctx context.Context, ref entity.RelatedEntity, assignee *int64) error {
	due := s.now.Add(time.Duration(s.fake.Number(-5, 20)) * 24 * time.Hour)
	task := &entity.Task{
		Subject:      s.fake.HipsterSentence(4),
		Type:         s.pick(taskTypes),
		Status:       s.pick(taskStatuses),
		Priority:     s.pick(priorities),
		DueDate:      &due,
		Related:      ref,
		AssignedToID: assignee,
		CreatedByID:  assignee,
	}
	if err := s.repos.Tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("seed: tarea: %w", err)
	}
	s.sum.Tasks++
	return nil
}
