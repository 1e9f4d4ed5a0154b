package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// errorResponder traduce errores de dominio a respuestas HTTP.
type errorResponder struct {
	log *logger.Logger
}

// respond mapea la taxonomía de dominio:
// 404 NOT_FOUND · 403 FORBIDDEN · 400 VALIDATION · 409 CONFLICT · 503 UNAVAILABLE · 500 INTERNAL.
func (r errorResponder) respond(c *fiber.Ctx, err error) error {
	var (
		vErr   *domain.ValidationError
		reqErr *requestError
	)
	switch {
	case errors.As(err, &reqErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: reqErr.code, Message: reqErr.message})
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: vErr.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		r.logger(c).Error().Err(err).Str("path", c.Path()).Msg("almacenamiento no disponible")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "servicio temporalmente no disponible"})
	}
	r.logger(c).Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func (r errorResponder) logger(c *fiber.Ctx) *logger.Logger {
	if r.log == nil {
		return logger.Nop()
	}
	return r.log.WithRequest(GetRequestID(c), GetUserID(c), string(GetRole(c)))
}

// ── Entrada ──────────────────────────────────────────────────────────────────

var validate = validator.New()

// requestError cuerpo, query o parámetro de ruta mal formado (400 con código propio).
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

// bindBody parsea el JSON del cuerpo y valida los tags `validate`.
func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &requestError{code: "INVALID_BODY", message: "cuerpo inválido"}
	}
	return validateStruct(out)
}

// bindQuery parsea los query params, aplica la página por defecto y valida.
func bindQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return &requestError{code: "INVALID_QUERY", message: "parámetros inválidos"}
	}
	if p, ok := out.(interface{ DefaultPage() }); ok {
		p.DefaultPage()
	}
	return validateStruct(out)
}

func validateStruct(out any) error {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &requestError{code: "VALIDATION", message: fe.Field() + ": no cumple la regla " + fe.Tag()}
	}
	return &requestError{code: "VALIDATION", message: err.Error()}
}

// paramID lee un parámetro de ruta como entero positivo.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, &requestError{code: "INVALID_ID", message: name + " inválido"}
	}
	return int64(id), nil
}
