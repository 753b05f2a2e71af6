package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"outreach_backend/internal/leads/drafting"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper runs a draft sweep.
type Sweeper interface {
	Sweep(ctx context.Context, opts drafting.Options) (drafting.Result, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	opt, err := redisConnOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		Logger: asynqLogger{log},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskGenerateDMDrafts, w.handleDMDraftSweep)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDMDraftSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDMDraftSweepPayload(task)
	if err != nil {
		return err
	}

	result, err := w.sweeper.Sweep(ctx, drafting.Options{
		Limit:      payload.Limit,
		Regenerate: payload.Regenerate,
	})
	if err != nil {
		// Only an unreachable store is worth a retry.
		if apperr.Is(err, apperr.KindUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		w.log.Error("dm draft sweep failed", "day", payload.Day, "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}

	w.log.Info("dm draft sweep done",
		"day", payload.Day,
		"eligible", result.Eligible,
		"generated", result.Generated,
		"failed", result.Failed,
	)
	return nil
}

// asynqLogger routes asynq's internal logging through the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(sprint(args)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(sprint(args)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(sprint(args)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(sprint(args)) }
func (l asynqLogger) Fatal(args ...interface{}) {
	l.log.Error(sprint(args))
	os.Exit(1)
}

func sprint(args []interface{}) string {
	return fmt.Sprint(args...)
}
