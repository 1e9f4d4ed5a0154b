package entity

import "time"

// Estados de Task.
const (
	TaskStatusOpen       = "Open"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"
)

// Task actividad (llamada, reunión, correo) ligada opcionalmente a otra entidad.
type Task struct {
	ID           int64
	Subject      string
	Description  string
	Type         string
	Status       string
	Priority     string
	DueDate      *time.Time
	Related      RelatedEntity
	AssignedToID *int64
	CreatedByID  *int64
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
