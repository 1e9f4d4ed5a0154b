package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/crm-api/internal/application/access"
	appanalytics "github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/usecase"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/infrastructure/cache"
	"github.com/jhoicas/crm-api/internal/infrastructure/export"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/crm-api/internal/infrastructure/pdf"
	"github.com/jhoicas/crm-api/internal/infrastructure/postgres"
	"github.com/jhoicas/crm-api/internal/infrastructure/queue"
	"github.com/jhoicas/crm-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/crm-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/crm-api/internal/interfaces/http"
	"github.com/jhoicas/crm-api/pkg/config"
	"github.com/jhoicas/crm-api/pkg/logger"
	"github.com/jhoicas/crm-api/pkg/metrics"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios del driver elegido.
type storage struct {
	users     repository.UserRepository
	regions   repository.RegionRepository
	auditLogs repository.AuditLogRepository
	stores    access.Stores
	tx        usecase.TxRunner
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	m := metrics.New()

	// Eventos: RabbitMQ si hay URL, si no solo log.
	var publisher ports.EventPublisher = queue.NewLogPublisher(log.Component("events"), m)
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := queue.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, m)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rabbit.Close()
		publisher = rabbit
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("publicando eventos en RabbitMQ")
	}

	engine := access.NewEngine(
		access.NewRegionResolver(store.users, log.Component("access")),
		store.stores,
		log.Component("access"),
		access.WithDenialRecorder(m),
		access.WithOpportunityPolicy(access.OpportunityPolicy{
			EnforceScope: cfg.Opportunity.EnforceScope,
			LockClosed:   cfg.Opportunity.LockClosed,
		}),
	)

	dashboardOpts := []appanalytics.DashboardOption{appanalytics.WithRecorder(m)}
	auditOpts := []usecase.AuditorOption{usecase.WithAuditLog(store.auditLogs)}
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		ttl := time.Duration(cfg.Redis.DashboardTTLSec) * time.Second
		reports := cache.NewReportCache(rdb)
		dashboardOpts = append(dashboardOpts, appanalytics.WithReportCache(reports, ttl))
		auditOpts = append(auditOpts, usecase.WithReportInvalidation(reports))
		log.Info().Dur("ttl", ttl).Msg("caché del dashboard en Redis")
	}

	audit := usecase.NewAuditor(publisher, log, auditOpts...)
	dashboardUC := appanalytics.NewDashboardUseCase(engine, store.stores.Opportunities, store.users, store.regions, log, dashboardOpts...)
	digestUC := appanalytics.NewStalledDigestUseCase(store.stores.Opportunities, publisher, log)

	jobs := scheduler.New(log.Component("scheduler"))
	if ok, err := jobs.Register("stalled_digest", cfg.Jobs.StalledDigestCron, digestUC); err != nil {
		log.Fatal().Err(err).Msg("programar resumen de negocios estancados")
	} else if !ok {
		log.Info().Msg("resumen de negocios estancados deshabilitado")
	}
	jobs.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "CRM API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DashboardUC:   dashboardUC,
		AccountUC:     usecase.NewAccountUseCase(engine, store.stores, audit),
		LeadUC:        usecase.NewLeadUseCase(engine, store.stores, store.tx, audit),
		OpportunityUC: usecase.NewOpportunityUseCase(engine, store.stores, audit),
		ContactUC:     usecase.NewContactUseCase(engine, store.stores.Contacts, audit),
		TaskUC:        usecase.NewTaskUseCase(engine, store.stores.Tasks, audit),
		DocumentUC:    usecase.NewDocumentUseCase(engine, store.stores.Documents),
		UserUC:        usecase.NewUserUseCase(engine, store.users, store.regions, audit),
		AuditLogUC:    usecase.NewAuditLogUseCase(store.auditLogs),
		XLSXExporter:  export.NewXLSXExporter(),
		PDFExporter:   infrapdf.NewDashboardPDFExporter(),
		Metrics:       m,
		Log:           log,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage abre PostgreSQL (con migraciones) o el almacén en memoria con datos de demostración.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Store.Driver == "memory" {
		mem := memory.NewStore()
		sum, err := seed.New(seed.Repos{
			Users:         mem.Users(),
			Regions:       mem.Regions(),
			Accounts:      mem.Accounts(),
			Leads:         mem.Leads(),
			Opportunities: mem.Opportunities(),
			Contacts:      mem.Contacts(),
			Tasks:         mem.Tasks(),
			Documents:     mem.Documents(),
		}, seed.Options{AccountsPerRegion: cfg.Store.SeedSize}, log.Component("seed")).Run(ctx)
		if err != nil && !errors.Is(err, seed.ErrAlreadySeeded) {
			return nil, err
		}
		if sum != nil {
			for _, l := range sum.Logins {
				log.Info().Str("email", l.Email).Str("role", string(l.Role)).Msg("usuario de demostración")
			}
		}
		return &storage{
			users:     mem.Users(),
			regions:   mem.Regions(),
			auditLogs: mem.AuditLogs(),
			stores:    mem.Stores(),
			tx:        mem,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	repos := postgres.NewRepositories(pool)
	return &storage{
		users:     repos.Users,
		regions:   repos.Regions,
		auditLogs: repos.AuditLogs,
		stores:    repos.Stores(),
		tx:        postgres.NewTxRunner(pool),
		close:     pool.Close,
	}, nil
}
