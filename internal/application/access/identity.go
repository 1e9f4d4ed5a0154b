// Package access resuelve quién actúa, en qué regiones puede actuar y qué filas puede
// ver o modificar para cada tipo de entidad.
package access

import (
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// ActingUser identidad verificada de quien hace la petición. Se pasa explícitamente a
// cada chequeo de alcance; nunca se lee de estado global.
type ActingUser struct {
	ID   int64
	Role entity.Role
}

// IsSuperAdmin atajo para el rol sin restricciones.
func (u ActingUser) IsSuperAdmin() bool { return u.Role == entity.RoleSuperAdmin }
