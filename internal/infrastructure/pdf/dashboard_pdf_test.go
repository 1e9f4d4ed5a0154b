package pdf_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/infrastructure/pdf"
)

func TestDashboardPDFExporter_Export(t *testing.T) {
	report := &dto.DashboardDTO{
		Scope: dto.ScopeDTO{Role: "Regional Lead", UserID: 20, UserName: "Lucía Lead", RegionName: "Norte"},
		Kpis:  dto.KpisDTO{RevenueWon: decimal.NewFromInt(5000), PipelineOpen: decimal.NewFromInt(1250000), OpenDealsCount: 3, WinRate: 50},
		Funnel: []dto.FunnelItemDTO{
			{StageKey: "proposal", StageLabel: "Proposal", Count: 2, Amount: decimal.NewFromInt(1250000)},
		},
		ForecastByRep: []dto.ForecastItemDTO{{Label: "Rita Rep", InProgressValue: decimal.NewFromInt(1250000), StalledValue: decimal.Zero}},
		StalledDeals: []dto.StalledDealDetailDTO{
			{ID: 4, OpportunityName: "Renovación", AccountName: "Acme", StageLabel: "Proposal", Value: decimal.NewFromInt(250000), DaysInStage: 30, OwnerName: "Rita Rep"},
		},
	}

	exp := pdf.NewDashboardPDFExporter()
	raw, err := exp.Export(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
	assert.Equal(t, "application/pdf", exp.ContentType())
	assert.Equal(t, "pdf", exp.FileExtension())
}

func TestDashboardPDFExporter_SinDatos(t *testing.T) {
	exp := pdf.NewDashboardPDFExporter()

	raw, err := exp.Export(&dto.DashboardDTO{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	_, err = exp.Export(nil)
	assert.Error(t, err)
}
