package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appanalytics "github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/usecase"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/logger"
	"github.com/jhoicas/crm-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DashboardUC   *appanalytics.DashboardUseCase
	AccountUC     *usecase.AccountUseCase
	LeadUC        *usecase.LeadUseCase
	OpportunityUC *usecase.OpportunityUseCase
	ContactUC     *usecase.ContactUseCase
	TaskUC        *usecase.TaskUseCase
	DocumentUC    *usecase.DocumentUseCase
	UserUC        *usecase.UserUseCase
	AuditLogUC    *usecase.AuditLogUseCase
	XLSXExporter  ports.DashboardExporter
	PDFExporter   ports.DashboardExporter
	Metrics       *metrics.Metrics
	Log           *logger.Logger
	JWTSecret     string
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	errs := errorResponder{log: log}

	app.Use(RequestID())
	app.Use(RequestLogger(log))
	if deps.Metrics != nil {
		app.Use(Metrics(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// Todas las rutas de /api requieren Bearer Token; el alcance lo decide cada caso de uso.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	dashboard := NewDashboardHandler(deps.DashboardUC, deps.XLSXExporter, deps.PDFExporter, errs)
	api.Get("/dashboard", dashboard.Get)
	api.Get("/dashboard/export.xlsx", dashboard.ExportXLSX)
	api.Get("/dashboard/export.pdf", dashboard.ExportPDF)

	accounts := api.Group("/accounts")
	accountHandler := NewAccountHandler(deps.AccountUC, errs)
	accounts.Get("/", accountHandler.List)
	accounts.Post("/", accountHandler.Create)
	accounts.Get("/:id", accountHandler.GetByID)
	accounts.Delete("/:id", RequireRole(entity.RoleRegionalLead, entity.RoleSuperAdmin), accountHandler.Delete)
	accounts.Post("/:id/approve", RequireRole(entity.RoleRegionalLead, entity.RoleSuperAdmin), accountHandler.Approve)
	accounts.Post("/:id/reject", RequireRole(entity.RoleRegionalLead, entity.RoleSuperAdmin), accountHandler.Reject)
	accounts.Get("/:id/contacts", accountHandler.Contacts)
	accounts.Get("/:id/opportunities", accountHandler.Opportunities)
	accounts.Get("/:id/tasks", accountHandler.Tasks)
	accounts.Get("/:id/documents", accountHandler.Documents)

	leads := api.Group("/leads")
	leadHandler := NewLeadHandler(deps.LeadUC, errs)
	leads.Get("/", leadHandler.List)
	leads.Post("/", leadHandler.Create)
	leads.Get("/:id", leadHandler.GetByID)
	leads.Post("/:id/convert", RequireRole(entity.RoleSuperAdmin), leadHandler.Convert)

	opps := api.Group("/opportunities")
	oppHandler := NewOpportunityHandler(deps.OpportunityUC, errs)
	opps.Get("/", oppHandler.List)
	opps.Post("/", oppHandler.Create)
	opps.Get("/:id", oppHandler.GetByID)
	opps.Post("/:id/move-stage", oppHandler.MoveStage)
	opps.Post("/:id/win", oppHandler.Win)
	opps.Post("/:id/lose", oppHandler.Lose)
	opps.Get("/:id/activities", oppHandler.Activities)
	opps.Get("/:id/documents", oppHandler.Documents)

	contacts := api.Group("/contacts")
	contactHandler := NewContactHandler(deps.ContactUC, errs)
	contacts.Get("/", contactHandler.List)
	contacts.Post("/", contactHandler.Create)
	contacts.Get("/:id", contactHandler.GetByID)

	tasks := api.Group("/tasks")
	taskHandler := NewTaskHandler(deps.TaskUC, errs)
	tasks.Get("/", taskHandler.List)
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/:id", taskHandler.GetByID)
	tasks.Post("/:id/complete", taskHandler.Complete)

	documents := api.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC, errs)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)

	users := api.Group("/users")
	userHandler := NewUserHandler(deps.UserUC, errs)
	users.Get("/me", userHandler.Me)
	users.Get("/:id/regions", userHandler.Regions)
	users.Put("/:id/role", RequireRole(entity.RoleSuperAdmin), userHandler.ChangeRole)

	api.Get("/regions", userHandler.ListRegions)

	auditLogs := api.Group("/audit-logs", RequireRole(entity.RoleSuperAdmin))
	auditHandler := NewAuditLogHandler(deps.AuditLogUC, errs)
	auditLogs.Get("/", auditHandler.List)
	auditLogs.Get("/:id", auditHandler.GetByID)
}
