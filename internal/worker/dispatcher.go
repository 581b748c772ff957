package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

// ErrUnknownTaskType is fatal: no amount of retrying registers a handler.
var ErrUnknownTaskType = fmt.Errorf("%w: unknown task type", domain.ErrValidation)

type TaskHandler interface {
	Handle(ctx context.Context, task *domain.Task, logger *slog.Logger) error
}

// Exhauster is implemented by handlers that must record a terminal failure
// once a task will not be attempted again.
type Exhauster interface {
	OnExhausted(ctx context.Context, task *domain.Task, cause error) error
}

type Dispatcher struct {
	handlers map[domain.TaskType]TaskHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domain.TaskType]TaskHandler),
	}
}

func (d *Dispatcher) Register(taskType domain.TaskType, handler TaskHandler) {
	d.handlers[taskType] = handler
}

func (d *Dispatcher) Dispatch(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	handler, ok := d.handlers[task.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}
	return handler.Handle(ctx, task, logger)
}

// Exhausted runs the terminal handler for the task's type, if it has one.
func (d *Dispatcher) Exhausted(ctx context.Context, task *domain.Task, cause error) error {
	handler, ok := d.handlers[task.Type]
	if !ok {
		return nil
	}
	if ex, ok := handler.(Exhauster); ok {
		return ex.OnExhausted(ctx, task, cause)
	}
	return nil
}
