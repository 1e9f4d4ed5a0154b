package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/access"
	appanalytics "github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/infrastructure/export"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	"github.com/jhoicas/crm-api/internal/infrastructure/queue"
	apphttp "github.com/jhoicas/crm-api/internal/interfaces/http"
	"github.com/jhoicas/crm-api/pkg/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el almacén en memoria
//
//	Regiones: 5 Norte, 6 Sur
//	Usuarios: 1 Super Admin · 7 Sales Rep (5) · 8 Sales Rep (6) · 20 Regional Lead (5)
//	Cuentas:  1 Acme (5, rep 7, Active) · 2 Globex (5, rep 7, Pending) · 3 Initech (6, rep 8)
//	Lead 1 Stark (owner 7) · Tarea 1 sobre Acme asignada a 7
// ──────────────────────────────────────────────────────────────────────────────

func ptr(v int64) *int64 { return &v }

func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	for _, r := range []*entity.Region{{ID: 5, Name: "Norte"}, {ID: 6, Name: "Sur"}} {
		require.NoError(t, s.Regions().Create(ctx, r))
	}
	for _, u := range []*entity.User{
		{ID: 1, Name: "Ana Admin", Email: "ana@crm.local", Role: entity.RoleSuperAdmin, Active: true},
		{ID: 7, Name: "Rita Rep", Email: "rita@crm.local", Role: entity.RoleSalesRep, PrimaryRegionID: ptr(5), Active: true},
		{ID: 8, Name: "Raúl Rep", Email: "raul@crm.local", Role: entity.RoleSalesRep, PrimaryRegionID: ptr(6), Active: true},
		{ID: 20, Name: "Lucía Lead", Email: "lucia@crm.local", Role: entity.RoleRegionalLead, PrimaryRegionID: ptr(5), Active: true},
	} {
		require.NoError(t, s.Users().Create(ctx, u))
	}
	for _, a := range []*entity.Account{
		{ID: 1, Name: "Acme", RegionID: 5, SalesRepID: ptr(7), Status: entity.AccountStatusActive},
		{ID: 2, Name: "Globex", RegionID: 5, SalesRepID: ptr(7), Status: entity.AccountStatusPendingApproval},
		{ID: 3, Name: "Initech", RegionID: 6, SalesRepID: ptr(8), Status: entity.AccountStatusActive},
	} {
		require.NoError(t, s.Accounts().Create(ctx, a))
	}
	closeDate := time.Now().AddDate(0, 1, 0)
	for _, o := range []*entity.Opportunity{
		{ID: 1, Name: "O1", AccountID: 1, Stage: entity.StageProposal, Amount: decimal.NewFromInt(100000), OwnerID: ptr(7), CloseDate: closeDate},
		{ID: 2, Name: "O2", AccountID: 3, Stage: entity.StageNegotiation, Amount: decimal.NewFromInt(5000), OwnerID: ptr(8), CloseDate: closeDate},
	} {
		require.NoError(t, s.Opportunities().Create(ctx, o))
	}
	require.NoError(t, s.Leads().Create(ctx, &entity.Lead{
		ID: 1, Name: "Pedro", Company: "Stark", Phone: "555-0101", Status: entity.LeadStatusQualified, OwnerID: ptr(7), RegionID: ptr(5),
	}))
	require.NoError(t, s.Tasks().Create(ctx, &entity.Task{
		ID: 1, Subject: "Llamar a Acme", Status: entity.TaskStatusOpen, Related: entity.RelatedEntity{Kind: entity.KindAccount, ID: 1}, AssignedToID: ptr(7),
	}))

	stores := s.Stores()
	m := metrics.New()
	engine := access.NewEngine(access.NewRegionResolver(s.Users(), nil), stores, nil, access.WithDenialRecorder(m))
	audit := usecase.NewAuditor(queue.NewLogPublisher(nil, m), nil, usecase.WithAuditLog(s.AuditLogs()))

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		DashboardUC:   appanalytics.NewDashboardUseCase(engine, s.Opportunities(), s.Users(), s.Regions(), nil, appanalytics.WithRecorder(m)),
		AccountUC:     usecase.NewAccountUseCase(engine, stores, audit),
		LeadUC:        usecase.NewLeadUseCase(engine, stores, s, audit),
		OpportunityUC: usecase.NewOpportunityUseCase(engine, stores, audit),
		ContactUC:     usecase.NewContactUseCase(engine, s.Contacts(), audit),
		TaskUC:        usecase.NewTaskUseCase(engine, s.Tasks(), audit),
		DocumentUC:    usecase.NewDocumentUseCase(engine, s.Documents()),
		UserUC:        usecase.NewUserUseCase(engine, s.Users(), s.Regions(), audit),
		AuditLogUC:    usecase.NewAuditLogUseCase(s.AuditLogs()),
		XLSXExporter:  export.NewXLSXExporter(),
		Metrics:       m,
		JWTSecret:     testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

func TestAPI_Accounts_AlcancePorRol(t *testing.T) {
	app := newAPI(t)

	tests := []struct {
		name  string
		auth  string
		names []string
	}{
		{"Sales Rep ve sus cuentas", bearer(t, 7, "Sales Rep"), []string{"Acme", "Globex"}},
		{"Regional Lead ve su región", bearer(t, 20, "Regional Lead"), []string{"Acme", "Globex"}},
		{"Super Admin ve todo", bearer(t, 1, "Super Admin"), []string{"Acme", "Globex", "Initech"}},
		{"otro Sales Rep", bearer(t, 8, "Sales Rep"), []string{"Initech"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := call(t, app, http.MethodGet, "/api/accounts", tt.auth, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

			var out dto.ListResponse[dto.AccountResponse]
			require.NoError(t, json.Unmarshal(raw, &out))
			names := make([]string, 0, len(out.Items))
			for _, a := range out.Items {
				names = append(names, a.Name)
			}
			assert.ElementsMatch(t, tt.names, names)
		})
	}
}

func TestAPI_Accounts_CodigosDeError(t *testing.T) {
	app := newAPI(t)
	rep := bearer(t, 7, "Sales Rep")

	resp, raw := call(t, app, http.MethodGet, "/api/accounts/3", rep, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, raw).Code)

	resp, raw = call(t, app, http.MethodGet, "/api/accounts/999", rep, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)

	resp, raw = call(t, app, http.MethodGet, "/api/accounts/abc", rep, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", decodeError(t, raw).Code)

	resp, _ = call(t, app, http.MethodGet, "/api/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Accounts_CrearYAprobar(t *testing.T) {
	app := newAPI(t)
	rep := bearer(t, 7, "Sales Rep")
	lead := bearer(t, 20, "Regional Lead")

	resp, raw := call(t, app, http.MethodPost, "/api/accounts", rep, dto.CreateAccountRequest{Name: "Hooli", Status: entity.AccountStatusActive})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created dto.AccountResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, entity.AccountStatusPendingApproval, created.Status)
	require.NotNil(t, created.SalesRepID)
	assert.Equal(t, int64(7), *created.SalesRepID)
	assert.Equal(t, int64(5), created.RegionID)

	resp, raw = call(t, app, http.MethodPost, "/api/accounts", rep, map[string]any{"industry": "sin nombre"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)

	// Sales Rep no aprueba
	path := "/api/accounts/" + jsonID(created.ID) + "/approve"
	resp, _ = call(t, app, http.MethodPost, path, rep, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = call(t, app, http.MethodPost, path, lead, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var approved dto.AccountResponse
	require.NoError(t, json.Unmarshal(raw, &approved))
	assert.Equal(t, entity.AccountStatusActive, approved.Status)

	resp, raw = call(t, app, http.MethodPost, path, lead, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, raw).Code)

	// Regional Lead fuera de su región
	resp, _ = call(t, app, http.MethodDelete, "/api/accounts/3", lead, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/accounts/2/reject", lead, dto.RejectAccountRequest{Reason: "duplicada"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = call(t, app, http.MethodGet, "/api/accounts/2", lead, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestAPI_Opportunities(t *testing.T) {
	app := newAPI(t)
	rep := bearer(t, 7, "Sales Rep")

	resp, raw := call(t, app, http.MethodGet, "/api/accounts/1/opportunities", rep, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var list dto.ListResponse[dto.OpportunityResponse]
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "O1", list.Items[0].Name)

	resp, raw = call(t, app, http.MethodPost, "/api/opportunities/1/move-stage", rep, dto.MoveStageRequest{Stage: entity.StageNegotiation})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// las etapas terminales solo por /win y /lose
	resp, _ = call(t, app, http.MethodPost, "/api/opportunities/1/move-stage", rep, dto.MoveStageRequest{Stage: entity.StageClosedWon})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/opportunities/2/win", rep, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/opportunities/1/lose", rep, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = call(t, app, http.MethodPost, "/api/opportunities/1/lose", rep, dto.LoseOpportunityRequest{Reason: "Precio"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var lost dto.OpportunityResponse
	require.NoError(t, json.Unmarshal(raw, &lost))
	assert.Equal(t, entity.StageClosedLost, lost.Stage)
	assert.NotNil(t, lost.LostAt)
}

func TestAPI_Dashboard(t *testing.T) {
	app := newAPI(t)

	resp, raw := call(t, app, http.MethodGet, "/api/dashboard", bearer(t, 7, "Sales Rep"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var report map[string]any
	require.NoError(t, json.Unmarshal(raw, &report))
	kpis := report["kpis"].(map[string]any)
	assert.EqualValues(t, 100000, kpis["pipelineOpen"], "montos como números JSON")
	assert.EqualValues(t, 1, kpis["openDealsCount"])
	scope := report["scope"].(map[string]any)
	assert.Equal(t, "Sales Rep", scope["role"])
	assert.Equal(t, "Norte", scope["regionName"])

	resp, raw = call(t, app, http.MethodGet, "/api/dashboard", bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "RegionStage", report["forecastPivot"].(map[string]any)["mode"])

	resp, raw = call(t, app, http.MethodGet, "/api/dashboard?dateFrom=2026-03-01&dateTo=2026-01-01", bearer(t, 1, "Super Admin"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)
}

func TestAPI_DashboardExport(t *testing.T) {
	app := newAPI(t)
	auth := bearer(t, 20, "Regional Lead")

	resp, raw := call(t, app, http.MethodGet, "/api/dashboard/export.xlsx", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.NewXLSXExporter().ContentType(), resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
	assert.NotEmpty(t, raw)

	// sin exportador PDF configurado
	resp, _ = call(t, app, http.MethodGet, "/api/dashboard/export.pdf", auth, nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestAPI_Users(t *testing.T) {
	app := newAPI(t)

	resp, raw := call(t, app, http.MethodGet, "/api/users/me", bearer(t, 20, "Regional Lead"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, "Lucía Lead", me.Name)

	resp, _ = call(t, app, http.MethodGet, "/api/users/8/regions", bearer(t, 7, "Sales Rep"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = call(t, app, http.MethodGet, "/api/users/20/regions", bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var regions dto.EffectiveRegionsResponse
	require.NoError(t, json.Unmarshal(raw, &regions))
	require.Len(t, regions.Regions, 1)
	assert.Equal(t, "Norte", regions.Regions[0].Name)

	resp, _ = call(t, app, http.MethodPut, "/api/users/8/role", bearer(t, 20, "Regional Lead"), dto.ChangeRoleRequest{Role: "Regional Lead"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = call(t, app, http.MethodPut, "/api/users/8/role", bearer(t, 1, "Super Admin"), dto.ChangeRoleRequest{Role: "RegionalLead"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var changed dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &changed))
	assert.Equal(t, "Regional Lead", changed.Role)

	resp, raw = call(t, app, http.MethodGet, "/api/regions", bearer(t, 7, "Sales Rep"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []dto.RegionDTO
	require.NoError(t, json.Unmarshal(raw, &all))
	assert.Len(t, all, 2)
}

func TestAPI_RequestIDYMetricas(t *testing.T) {
	app := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", bearer(t, 7, "Sales Rep"))
	req.Header.Set(apphttp.HeaderRequestID, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(apphttp.HeaderRequestID))

	resp, _ = call(t, app, http.MethodGet, "/api/users/me", bearer(t, 7, "Sales Rep"), nil)
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))

	resp, raw := call(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestAPI_Tasks_Completar(t *testing.T) {
	app := newAPI(t)

	resp, _ := call(t, app, http.MethodPost, "/api/tasks/1/complete", bearer(t, 8, "Sales Rep"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/tasks/99/complete", bearer(t, 1, "Super Admin"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw := call(t, app, http.MethodPost, "/api/tasks/1/complete", bearer(t, 7, "Sales Rep"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var task dto.TaskResponse
	require.NoError(t, json.Unmarshal(raw, &task))
	assert.Equal(t, entity.TaskStatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)

	resp, raw = call(t, app, http.MethodPost, "/api/tasks/1/complete", bearer(t, 7, "Sales Rep"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, raw).Code)
}

func TestAPI_Leads_Convertir(t *testing.T) {
	app := newAPI(t)

	resp, _ := call(t, app, http.MethodPost, "/api/leads/1/convert", bearer(t, 7, "Sales Rep"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := call(t, app, http.MethodPost, "/api/leads/1/convert", bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.ConvertLeadResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, entity.LeadStatusConverted, out.Lead.Status)
	assert.NotNil(t, out.Lead.ConvertedAt)
	assert.Equal(t, "Stark", out.Account.Name)
	assert.Equal(t, entity.AccountStatusProspect, out.Account.Status)
	assert.Equal(t, int64(5), out.Account.RegionID)

	// La cuenta nueva es del owner del lead.
	resp, raw = call(t, app, http.MethodGet, "/api/accounts", bearer(t, 7, "Sales Rep"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"Stark"`)

	resp, _ = call(t, app, http.MethodPost, "/api/leads/1/convert", bearer(t, 1, "Super Admin"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/leads/42/convert", bearer(t, 1, "Super Admin"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AuditLogs(t *testing.T) {
	app := newAPI(t)

	resp, _ := call(t, app, http.MethodPost, "/api/tasks/1/complete", bearer(t, 7, "Sales Rep"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = call(t, app, http.MethodPost, "/api/leads/1/convert", bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/audit-logs", bearer(t, 20, "Regional Lead"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := call(t, app, http.MethodGet, "/api/audit-logs?action=task.completed", bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var list dto.ListResponse[dto.AuditLogResponse]
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	entry := list.Items[0]
	assert.Equal(t, int64(7), entry.UserID)
	assert.Equal(t, "Rita Rep", entry.UserName)
	assert.Equal(t, "Task", entry.EntityType)
	assert.Equal(t, int64(1), entry.EntityID)

	resp, raw = call(t, app, http.MethodGet, "/api/audit-logs?userId=1", bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "lead.converted", list.Items[0].Action)

	resp, raw = call(t, app, http.MethodGet, fmt.Sprintf("/api/audit-logs/%d", entry.ID), bearer(t, 1, "Super Admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var one dto.AuditLogResponse
	require.NoError(t, json.Unmarshal(raw, &one))
	assert.Equal(t, entry.EventID, one.EventID)

	resp, _ = call(t, app, http.MethodGet, "/api/audit-logs/999", bearer(t, 1, "Super Admin"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw = call(t, app, http.MethodGet, "/api/audit-logs?dateFrom=ayer", bearer(t, 1, "Super Admin"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)
}
