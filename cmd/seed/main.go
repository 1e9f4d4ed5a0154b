// seed carga un CRM de demostración en PostgreSQL: regiones, usuarios de los tres roles
// y una cartera de cuentas, leads, oportunidades, contactos, tareas y documentos.
//
// Uso: go run ./cmd/seed [-accounts 6] [-reps 2] [-seed 42]
// Todos los usuarios comparten la contraseña seed.DemoPassword.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/crm-api/internal/infrastructure/postgres"
	"github.com/jhoicas/crm-api/internal/infrastructure/seed"
	"github.com/jhoicas/crm-api/pkg/config"
	"github.com/jhoicas/crm-api/pkg/logger"
)

func main() {
	accounts := flag.Int("accounts", 6, "cuentas por región")
	reps := flag.Int("reps", 2, "Sales Reps por región")
	randSeed := flag.Int64("seed", 42, "semilla del generador")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: cfg.App.Name}).Component("seed")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	var sum *seed.Summary
	err = postgres.NewTxRunner(pool).Run(ctx, func(r postgres.Repositories) error {
		var runErr error
		sum, runErr = seed.New(seed.Repos{
			Users:         r.Users,
			Regions:       r.Regions,
			Accounts:      r.Accounts,
			Leads:         r.Leads,
			Opportunities: r.Opportunities,
			Contacts:      r.Contacts,
			Tasks:         r.Tasks,
			Documents:     r.Documents,
		}, seed.Options{AccountsPerRegion: *accounts, RepsPerRegion: *reps, Seed: *randSeed}, log).Run(ctx)
		return runErr
	})
	if errors.Is(err, seed.ErrAlreadySeeded) {
		log.Warn().Msg("la base ya tiene datos de demostración, no se cargó nada")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}

	fmt.Printf("Regiones: %d  Usuarios: %d  Cuentas: %d  Leads: %d  Oportunidades: %d\n",
		sum.Regions, sum.Users, sum.Accounts, sum.Leads, sum.Opportunities)
	fmt.Printf("Contactos: %d  Tareas: %d  Documentos: %d\n", sum.Contacts, sum.Tasks, sum.Documents)
	fmt.Printf("\nUsuarios (contraseña %q):\n", seed.DemoPassword)
	for _, l := range sum.Logins {
		fmt.Printf("  %-32s %s\n", l.Email, l.Role)
	}
}
