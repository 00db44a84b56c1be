package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Provision asynq.Handler
	Logger    zerolog.Logger
}

// Worker servidor asynq. Concurrencia 1: las altas de un lote, y los lotes entre sí, van en serie.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

// NewWorker construye el worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Provision == nil {
		return nil, errors.New("worker: handler de altas no configurado")
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{QueueProvisioning: 1},
		Logger:      asynqLogger{cfg.Logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			cfg.Logger.Error().Err(err).Str("type", t.Type()).Msg("queue: tarea fallida")
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskProvisionAccounts, cfg.Provision)
	return &Worker{server: srv, mux: mux, log: cfg.Logger}, nil
}

// Run procesa tareas hasta que se cancele ctx.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// asynqLogger adapta zerolog a asynq.Logger.
type asynqLogger struct{ zl zerolog.Logger }

func (l asynqLogger) Debug(args ...interface{}) { l.zl.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.zl.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.zl.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.zl.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.zl.Fatal().Msg(fmt.Sprint(args...)) }
