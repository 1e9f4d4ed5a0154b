package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Etapas del pipeline. Closed Won y Closed Lost son terminales.
const (
	StageProspecting = "Prospecting"
	StageProposal    = "Proposal"
	StageNegotiation = "Negotiation"
	StageClosedWon   = "Closed Won"
	StageClosedLost  = "Closed Lost"
)

// IsClosedStage indica si la etapa es terminal.
func IsClosedStage(stage string) bool {
	return IsWonStage(stage) || IsLostStage(stage)
}

// IsWonStage acepta también la forma compacta "ClosedWon" de datos importados.
func IsWonStage(stage string) bool { return sameStage(stage, StageClosedWon) }

// IsLostStage ver IsWonStage.
func IsLostStage(stage string) bool { return sameStage(stage, StageClosedLost) }

func sameStage(a, b string) bool {
	return strings.EqualFold(strings.ReplaceAll(a, " ", ""), strings.ReplaceAll(b, " ", ""))
}

// Opportunity negocio abierto o cerrado sobre una Account.
// La región y el responsable de la cuenta se heredan de Account y no se guardan en la fila.
type Opportunity struct {
	ID         int64
	Name       string
	AccountID  int64
	Stage      string
	Amount     decimal.Decimal
	OwnerID    *int64
	CloseDate  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	WonAt      *time.Time
	LostAt     *time.Time
	LostReason string

	// Modelo de lectura: datos heredados de la cuenta y nombres resueltos.
	AccountName       string
	AccountRegionID   int64
	AccountSalesRepID *int64
	RegionName        string
	OwnerName         string
}

// IsOpen indica si la oportunidad sigue en el pipeline.
func (o *Opportunity) IsOpen() bool {
	return !IsClosedStage(o.Stage)
}
