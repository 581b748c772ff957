// Package worker runs queued tasks from the durable task table.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/notify"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

var errLeaseAbandoned = errors.New("lease expired on the final attempt")

type Worker struct {
	ctx           context.Context
	Repo          *store.DB
	Dispatcher    *Dispatcher
	Notifier      notify.Notifier
	Logger        *logger.Logger
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	MaxConcurrent int
	PollInterval  time.Duration
}

func NewWorker(repo *store.DB, dispatcher *Dispatcher, notifier notify.Notifier, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}

	return &Worker{
		Repo:          repo,
		Dispatcher:    dispatcher,
		Notifier:      notifier,
		MaxConcurrent: constants.DefaultConcurrency,
		PollInterval:  constants.DefaultPollInterval,
		Logger:        log.WithComponent("worker"),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting worker", "concurrency", w.MaxConcurrent)

	w.reapAbandoned(w.ctx)

	w.wg.Add(1)
	go w.processTasks()
}

// Stop cancels running tasks and waits for them to return. Interrupted tasks
// keep their lease and are redelivered once it expires.
func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) processTasks() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.MaxConcurrent)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.reapAbandoned(w.ctx)

		claim:
			for {
				select {
				case sem <- struct{}{}:
				default:
					break claim
				}

				task, err := w.Repo.ClaimTask(w.ctx)
				if err != nil || task == nil {
					<-sem
					if err != nil && w.ctx.Err() == nil {
						w.Logger.Error("Failed to claim task", "error", err)
					}
					break claim
				}

				w.wg.Add(1)
				go func(t *domain.Task) {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.runTask(w.ctx, t)
				}(task)
			}
		}
	}
}

// RunOnce claims and runs due tasks one at a time until none are left. It
// returns how many tasks ran.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	w.reapAbandoned(ctx)

	ran := 0
	for {
		task, err := w.Repo.ClaimTask(ctx)
		if err != nil {
			return ran, err
		}
		if task == nil {
			return ran, nil
		}
		w.runTask(ctx, task)
		ran++
	}
}

func (w *Worker) runTask(ctx context.Context, task *domain.Task) {
	log := w.Logger.WithTask(task.ID, string(task.Type), task.Attempts)

	err := w.execute(ctx, task, log)
	if ctx.Err() != nil {
		log.Warn("Task interrupted by shutdown", "error", err)
		return
	}
	w.finish(ctx, task, err, log)
}

func (w *Worker) execute(ctx context.Context, task *domain.Task, log *logger.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in task", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	tctx, cancel := context.WithTimeout(ctx, task.Type.Timeout())
	defer cancel()

	log.Debug("Running task")
	return w.Dispatcher.Dispatch(tctx, task, log.Logger)
}

func (w *Worker) finish(ctx context.Context, task *domain.Task, err error, log *logger.Logger) {
	now := w.Repo.Now()

	if err == nil {
		if cErr := w.Repo.CompleteTask(ctx, task.ID, task.Attempts); cErr != nil {
			log.Error("Failed to complete task", "error", cErr)
		}
		return
	}

	if s, ok := asSnooze(err); ok {
		log.Debug("Task snoozed", "delay", s.Delay, "reason", s.Reason)
		if sErr := w.Repo.SnoozeTask(ctx, task.ID, task.Attempts, now.Add(s.Delay)); sErr != nil {
			log.Error("Failed to snooze task", "error", sErr)
		}
		return
	}

	if domain.Retryable(err) && !task.Exhausted() {
		delay := Backoff(task.Attempts)
		log.Warn("Task failed, will retry", "error", err, "retry_in", delay)
		if rErr := w.Repo.RetryTask(ctx, task.ID, task.Attempts, now.Add(delay), err.Error()); rErr != nil {
			log.Error("Failed to reschedule task", "error", rErr)
		}
		return
	}

	w.terminate(ctx, task, err, log)
}

// terminate runs the type's terminal handler, fails the task and raises an alert.
func (w *Worker) terminate(ctx context.Context, task *domain.Task, cause error, log *logger.Logger) {
	log.Error("Task failed permanently", "error", cause)

	if err := w.Dispatcher.Exhausted(ctx, task, cause); err != nil {
		log.Error("Terminal handler failed", "error", err)
	}
	if err := w.Repo.FailTask(ctx, task.ID, task.Attempts, cause.Error()); err != nil {
		log.Error("Failed to mark task failed", "error", err)
		return
	}

	alert := notify.Alert{
		TaskID:   task.ID,
		TaskType: string(task.Type),
		Subject:  subject(task),
		Attempts: task.Attempts,
		Error:    cause.Error(),
		At:       w.Repo.Now(),
	}
	if err := w.Notifier.Alert(ctx, alert); err != nil {
		log.Warn("Failed to publish alert", "error", err)
	}
}

// reapAbandoned fails tasks whose last lease ran out. A worker died while
// running them and no one will claim them again.
func (w *Worker) reapAbandoned(ctx context.Context) {
	tasks, err := w.Repo.ListAbandonedTasks(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.Logger.Error("Failed to list abandoned tasks", "error", err)
		}
		return
	}
	for _, t := range tasks {
		w.terminate(ctx, t, errLeaseAbandoned, w.Logger.WithTask(t.ID, string(t.Type), t.Attempts))
	}
}

// Backoff is the delay before retrying after the given attempt.
func Backoff(attempt int) time.Duration {
	delay := constants.RetryBackoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= constants.RetryBackoffMax {
			return constants.RetryBackoffMax
		}
	}
	return delay
}

func subject(t *domain.Task) string {
	if t.DedupeKey != nil && *t.DedupeKey != "" {
		return *t.DedupeKey
	}
	return strings.TrimSpace(t.Payload)
}
