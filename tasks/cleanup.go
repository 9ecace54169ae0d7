package tasks

import (
	"context"

	"github.com/hibiken/asynq"

	"leadbook/core/logger"
	"leadbook/modules/credential/repository"
)

const TypeOAuthStateCleanup = "maintenance:oauth_state_cleanup"

// Expired consent-flow states are dead weight; a periodic sweep keeps the
// table from growing unbounded.
const cleanupSchedule = "@every 1h"

func NewOAuthStateCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeOAuthStateCleanup, nil)
}

type CleanupHandler struct {
	states repository.OAuthStateRepository
}

func NewCleanupHandler(states repository.OAuthStateRepository) *CleanupHandler {
	return &CleanupHandler{states: states}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if err := h.states.CleanupExpired(ctx); err != nil {
		logger.Error("Tasks:OAuthStateCleanup:Error", "error", err)
		return err
	}
	logger.Info("Tasks:OAuthStateCleanup:Done")
	return nil
}

// Worker runs the background queue and its periodic schedule in-process.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

func NewWorker(redis asynq.RedisClientOpt, states repository.OAuthStateRepository) *Worker {
	mux := asynq.NewServeMux()
	mux.Handle(TypeOAuthStateCleanup, NewCleanupHandler(states))

	server := asynq.NewServer(redis, asynq.Config{
		Concurrency: 2,
	})
	scheduler := asynq.NewScheduler(redis, nil)

	return &Worker{server: server, scheduler: scheduler, mux: mux}
}

// Start launches the queue server and the schedule; both run until
// Shutdown. Errors are logged rather than fatal so a broken queue never
// takes the API down with it.
func (w *Worker) Start() {
	if _, err := w.scheduler.Register(cleanupSchedule, NewOAuthStateCleanupTask()); err != nil {
		logger.Error("Tasks:Worker:RegisterSchedule:Error", "error", err)
	}
	go func() {
		if err := w.scheduler.Run(); err != nil {
			logger.Error("Tasks:Worker:Scheduler:Error", "error", err)
		}
	}()
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			logger.Error("Tasks:Worker:Server:Error", "error", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
