// Package worker runs the asynchronous generation workflow.
package worker

import (
	"context"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/notify"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/queue"

	"go.uber.org/zap"
)

// Store is the persistence surface the workflow needs.
type Store interface {
	SaveSlides(ctx context.Context, id string, slides []models.SlideContent) error
	UpdatePresentationStatus(ctx context.Context, id string, status models.PresentationStatus, errorMessage string) error
}

// Generator produces the slide deck for a new presentation.
type Generator interface {
	GeneratePresentation(ctx context.Context, title, description string) ([]models.SlideContent, error)
}

// Notifier pushes best-effort events to a waiting client.
type Notifier interface {
	Push(ctx context.Context, connectionID string, event notify.Event)
}

// Processor drives a presentation from processing to a terminal status.
// Re-processing a redelivered job regenerates and overwrites an already
// completed presentation; there is no deduplication.
type Processor struct {
	store    Store
	gen      Generator
	notifier Notifier
	log      *zap.Logger
}

// NewProcessor wires the workflow dependencies.
func NewProcessor(store Store, gen Generator, notifier Notifier, log *zap.Logger) *Processor {
	return &Processor{store: store, gen: gen, notifier: notifier, log: log}
}

// Process handles one generation job: generate slides, persist them, mark
// the presentation completed, and notify. Any error on that path marks the
// presentation failed with the error's message, notifies, and is returned
// so the runtime's redelivery policy applies. Only processing → completed
// and processing → failed exist; both are terminal.
func (p *Processor) Process(ctx context.Context, job queue.Job) error {
	p.log.Info("processing generation job",
		zap.String("presentationId", job.PresentationID),
		zap.String("userId", job.UserID))

	err := p.run(ctx, job)
	if err != nil {
		p.log.Error("generation failed",
			zap.String("presentationId", job.PresentationID), zap.Error(err))
		if uerr := p.store.UpdatePresentationStatus(ctx, job.PresentationID, models.StatusFailed, err.Error()); uerr != nil {
			p.log.Error("recording failed status failed",
				zap.String("presentationId", job.PresentationID), zap.Error(uerr))
		}
		p.notifier.Push(ctx, job.ConnectionID, notify.Event{
			Type:           notify.TypePresentationFailed,
			PresentationID: job.PresentationID,
			Error:          err.Error(),
		})
		return err
	}

	p.notifier.Push(ctx, job.ConnectionID, notify.Event{
		Type:           notify.TypePresentationCompleted,
		PresentationID: job.PresentationID,
	})
	return nil
}

// run is the happy path: generate, persist, complete.
func (p *Processor) run(ctx context.Context, job queue.Job) error {
	slides, err := p.gen.GeneratePresentation(ctx, job.Title, job.Description)
	if err != nil {
		return err
	}
	if err := p.store.SaveSlides(ctx, job.PresentationID, slides); err != nil {
		return err
	}
	return p.store.UpdatePresentationStatus(ctx, job.PresentationID, models.StatusCompleted, "")
}
