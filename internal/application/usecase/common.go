package usecase

import (
	"errors"
	"fmt"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// toPage aplica los valores por defecto de paginación.
func toPage(p dto.PageRequest) repository.Page {
	p.DefaultPage()
	if p.Limit > dto.MaxPageLimit {
		p.Limit = dto.MaxPageLimit
	}
	return repository.Page{Limit: p.Limit, Offset: p.Offset}
}

func pageResponse(p repository.Page, n int) dto.PageResponse {
	return dto.PageResponse{Limit: p.Limit, Offset: p.Offset, Total: n}
}

// optID convierte un filtro numérico de query (0 = sin filtro) en puntero.
func optID(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

// storeErr clasifica un error de repositorio: los errores de dominio se propagan,
// el resto se reporta como almacenamiento no disponible.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidInput, domain.ErrForbidden} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return domain.Unavailable(op, err)
}

func mapList[T any, R any](rows []*T, fn func(*T) R) []R {
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}
