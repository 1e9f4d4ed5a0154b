// Package scheduler corre las tareas programadas del CRM sobre robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/crm-api/pkg/logger"
)

// Job tarea programable; devuelve cuántos elementos procesó.
type Job interface {
	Run(ctx context.Context) (int, error)
}

// JobFunc adapta una función a Job.
type JobFunc func(ctx context.Context) (int, error)

func (f JobFunc) Run(ctx context.Context) (int, error) { return f(ctx) }

// DefaultJobTimeout tiempo máximo de una ejecución.
const DefaultJobTimeout = 10 * time.Minute

// Scheduler registra y ejecuta los jobs.
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration
}

// New crea el scheduler. Las ejecuciones solapadas de un mismo job se saltan.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		timeout: DefaultJobTimeout,
	}
}

// Register agenda job con una expresión cron de 5 campos (o descriptores como "@daily").
// Una expresión vacía deja el job deshabilitado y devuelve false.
func (s *Scheduler) Register(name, spec string, job Job) (bool, error) {
	if spec == "" {
		s.log.Info().Str("job", name).Msg("job deshabilitado")
		return false, nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(name, job) }); err != nil {
		return false, fmt.Errorf("scheduler: job %s: expresión %q: %w", name, spec, err)
	}
	s.log.Info().Str("job", name).Str("cron", spec).Msg("job programado")
	return true, nil
}

// RunNow ejecuta el job una vez con timeout y registra el resultado.
func (s *Scheduler) RunNow(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(ctx)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("job", name).Int("processed", n).Dur("elapsed", time.Since(start)).Msg("job ejecutado")
}

// Jobs cantidad de jobs agendados.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Start arranca el scheduler en segundo plano.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop detiene el scheduler y espera a que terminen los jobs en curso o venza ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler: jobs en curso no terminaron antes del apagado")
	}
}
