package worker

import (
	"context"
	"log/slog"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/batch"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/extractor"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/registration"
)

type ExtractHandler struct {
	Extractor *extractor.Extractor
}

func (h *ExtractHandler) Handle(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	var p domain.ExtractPayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	ext, err := h.Extractor.Process(ctx, p.UploadID)
	if err != nil {
		return err
	}
	logger.Info("Upload extracted", "upload_id", p.UploadID, "score", ext.QualityScore)
	return nil
}

func (h *ExtractHandler) OnExhausted(ctx context.Context, task *domain.Task, cause error) error {
	var p domain.ExtractPayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	return h.Extractor.MarkFailed(ctx, p.UploadID, cause.Error())
}

type PromoteHandler struct {
	Orchestrator *batch.Orchestrator
}

func (h *PromoteHandler) Handle(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	var p domain.PromotePayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	res, err := h.Orchestrator.Run(ctx, p.BatchID, p.AlbumID)
	if err != nil {
		return err
	}
	if res.Outcome == batch.OutcomeAwaitingSiblings {
		return Snooze(constants.PromoteWaitDelay, "waiting for sibling uploads")
	}
	logger.Info("Batch finished", "outcome", res.Outcome, "songs", res.Songs, "upc", res.UPC)
	return nil
}

func (h *PromoteHandler) OnExhausted(ctx context.Context, task *domain.Task, cause error) error {
	var p domain.PromotePayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	return h.Orchestrator.MarkFailed(ctx, p.AlbumID, cause.Error())
}

type RegisterHandler struct {
	Service *registration.Service
}

func (h *RegisterHandler) Handle(ctx context.Context, task *domain.Task, _ *slog.Logger) error {
	var p domain.RegisterPayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	return h.Service.Register(ctx, p.ISRCID)
}

func (h *RegisterHandler) OnExhausted(ctx context.Context, task *domain.Task, cause error) error {
	var p domain.RegisterPayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	return h.Service.MarkDisputed(ctx, p.ISRCID, cause.Error())
}

// InternationalHandler has no terminal handler: the domestic registration
// stands and the alert is enough.
type InternationalHandler struct {
	Service *registration.Service
}

func (h *InternationalHandler) Handle(ctx context.Context, task *domain.Task, _ *slog.Logger) error {
	var p domain.InternationalPayload
	if err := task.Decode(&p); err != nil {
		return err
	}
	return h.Service.RegisterInternational(ctx, p)
}

// Handlers bundles the services every task type needs.
type Handlers struct {
	Extractor    *extractor.Extractor
	Orchestrator *batch.Orchestrator
	Registration *registration.Service
}

// NewTaskDispatcher registers a handler for every task type.
func NewTaskDispatcher(h Handlers) *Dispatcher {
	d := NewDispatcher()
	d.Register(domain.TaskTypeExtractMetadata, &ExtractHandler{Extractor: h.Extractor})
	d.Register(domain.TaskTypePromoteBatch, &PromoteHandler{Orchestrator: h.Orchestrator})
	d.Register(domain.TaskTypeRegisterISRC, &RegisterHandler{Service: h.Registration})
	d.Register(domain.TaskTypeRegisterInternational, &InternationalHandler{Service: h.Registration})
	return d
}
