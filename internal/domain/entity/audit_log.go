package entity

import "time"

// AuditLog mutación registrada. EventID es el id del evento publicado a la cola.
type AuditLog struct {
	ID         int64
	EventID    string
	UserID     int64
	UserName   string
	Role       string
	Action     string
	EntityType string
	EntityID   int64
	Details    map[string]any
	At         time.Time
}
