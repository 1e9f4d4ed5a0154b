package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// StalledDigestUseCase agrupa los negocios estancados por responsable y publica un resumen
// por cada uno. Corre como job programado, sin usuario: recorre todo el pipeline.
type StalledDigestUseCase struct {
	opps      repository.OpportunityRepository
	publisher ports.EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewStalledDigestUseCase construye el caso de uso.
func NewStalledDigestUseCase(opps repository.OpportunityRepository, publisher ports.EventPublisher, log *logger.Logger) *StalledDigestUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StalledDigestUseCase{opps: opps, publisher: publisher, log: log, now: time.Now}
}

// SetClock fija el reloj (tests).
func (uc *StalledDigestUseCase) SetClock(now func() time.Time) { uc.now = now }

// Run publica un StalledDigest por responsable y devuelve cuántos se publicaron.
// Un fallo de publicación no detiene al resto; los errores se devuelven juntos.
func (uc *StalledDigestUseCase) Run(ctx context.Context) (int, error) {
	now := uc.now()
	open, err := uc.opps.ListWhere(ctx, scope.All(), repository.OpportunityFilter{OpenOnly: true})
	if err != nil {
		return 0, fmt.Errorf("digest: oportunidades: %w", err)
	}

	type group struct {
		ownerID   *int64
		ownerName string
		deals     []*entity.Opportunity
	}
	var groups []*group
	byOwner := make(map[int64]*group)
	var unowned *group
	for _, o := range open {
		if !IsStalled(o, now) {
			continue
		}
		var g *group
		if o.OwnerID == nil {
			if unowned == nil {
				unowned = &group{ownerName: unknownLabel}
				groups = append(groups, unowned)
			}
			g = unowned
		} else if g = byOwner[*o.OwnerID]; g == nil {
			id := *o.OwnerID
			g = &group{ownerID: &id, ownerName: orUnknown(o.OwnerName)}
			byOwner[id] = g
			groups = append(groups, g)
		}
		g.deals = append(g.deals, o)
	}

	published := 0
	var errs []error
	for _, g := range groups {
		d := ports.StalledDigest{
			ID:          uuid.New().String(),
			OwnerID:     g.ownerID,
			OwnerName:   g.ownerName,
			GeneratedAt: now,
			TotalValue:  sumAmount(g.deals).Round(2),
			Deals:       buildStalledTable(g.deals, now),
		}
		if err := uc.publisher.PublishStalledDigest(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("digest %s: %w", g.ownerName, err))
			continue
		}
		published++
	}
	uc.log.Info().Int("owners", len(groups)).Int("published", published).Msg("digest de estancados enviado")
	return published, errors.Join(errs...)
}
