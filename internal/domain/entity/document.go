package entity

import "time"

// Document metadatos de un archivo adjunto; el almacenamiento del binario es externo.
type Document struct {
	ID           int64
	Name         string
	Type         string
	Status       string
	URL          string
	UploadedByID *int64
	Related      RelatedEntity
	CreatedAt    time.Time
}
