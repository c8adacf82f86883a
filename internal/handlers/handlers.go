// Package handlers implements the HTTP API over API Gateway v2 events.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/authz"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/ddb"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/httpx"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/notify"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/queue"

	"github.com/aws/aws-lambda-go/events"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store is the persistence surface the handlers need.
type Store interface {
	GetPresentation(ctx context.Context, id string) (*models.Presentation, error)
	GetPresentationMetadata(ctx context.Context, id string) (*models.PresentationMetadata, error)
	SavePresentationMetadata(ctx context.Context, meta *models.PresentationMetadata) error
	SaveSlides(ctx context.Context, id string, slides []models.SlideContent) error
	DeleteSlide(ctx context.Context, id string, index int) error
	UpdatePresentationMetadata(ctx context.Context, id string, upd ddb.MetadataUpdate) error
	GetUserPresentations(ctx context.Context, userID string) ([]models.PresentationMetadata, error)
	DeletePresentation(ctx context.Context, id string) error
}

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, bearer string) (*models.Identity, error)
}

// Generator is the model-facing surface for slide edits.
type Generator interface {
	EditSlide(ctx context.Context, p *models.Presentation, index int, instruction string) ([]models.AffectedSlide, error)
	GenerateSlide(ctx context.Context, p *models.Presentation, instruction string, position int, slideType string) (models.SlideContent, error)
	RefinePresentation(ctx context.Context, p *models.Presentation, instruction string) ([]models.AffectedSlide, error)
}

// Enqueuer publishes generation jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// Notifier pushes best-effort events to connected clients.
type Notifier interface {
	Push(ctx context.Context, connectionID string, event notify.Event)
}

// App holds the application state shared by all routes.
type App struct {
	authActive bool
	store      Store
	verifier   Verifier
	gen        Generator
	jobs       Enqueuer
	notifier   Notifier
	log        *zap.Logger
	newID      func() string
}

// NewApp wires the handler dependencies. verifier may be nil when
// authActive is false.
func NewApp(authActive bool, store Store, verifier Verifier, gen Generator, jobs Enqueuer, notifier Notifier, log *zap.Logger) *App {
	return &App{
		authActive: authActive,
		store:      store,
		verifier:   verifier,
		gen:        gen,
		jobs:       jobs,
		notifier:   notifier,
		log:        log,
		newID:      func() string { return ulid.Make().String() },
	}
}

// Handle dispatches one HTTP API request by route key.
func (a *App) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch req.RouteKey {
	case "GET /health":
		return httpx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	case "POST /presentations":
		return a.createPresentation(ctx, req)
	case "GET /presentations":
		return a.listPresentations(ctx, req)
	case "GET /presentations/{id}":
		return a.getPresentation(ctx, req)
	case "PUT /presentations/{id}":
		return a.updatePresentation(ctx, req)
	case "DELETE /presentations/{id}":
		return a.deletePresentation(ctx, req)
	case "PUT /presentations/{id}/slides/{index}":
		return a.updateSlide(ctx, req)
	case "POST /presentations/{id}/slides":
		return a.addSlide(ctx, req)
	case "DELETE /presentations/{id}/slides/{index}":
		return a.deleteSlide(ctx, req)
	case "POST /presentations/{id}/refine":
		return a.refinePresentation(ctx, req)
	}
	return httpx.NotFound("route not found")
}

// identity resolves the caller. With auth inactive every request acts as
// the fixed anonymous identity.
func (a *App) identity(ctx context.Context, req events.APIGatewayV2HTTPRequest) (*models.Identity, error) {
	if !a.authActive {
		return &models.Identity{Email: authz.AnonymousEmail}, nil
	}
	return a.verifier.Verify(ctx, authz.BearerFromRequest(req))
}

type createRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Theme       *models.Theme `json:"theme,omitempty"`
}

func (a *App) createPresentation(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	caller, err := a.identity(ctx, req)
	if err != nil {
		return httpx.Unauthorized()
	}

	var body createRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if body.Title == "" || body.Description == "" {
		return httpx.BadRequest("title and description are required")
	}

	id := a.newID()
	meta := &models.PresentationMetadata{
		ID:          id,
		Title:       body.Title,
		Description: body.Description,
		UserID:      caller.Email,
		Status:      models.StatusProcessing,
		Theme:       body.Theme,
	}
	if err := a.store.SavePresentationMetadata(ctx, meta); err != nil {
		a.log.Error("create presentation failed", zap.String("id", id), zap.Error(err))
		return httpx.Internal()
	}

	job := queue.Job{
		PresentationID: id,
		UserID:         caller.Email,
		Title:          body.Title,
		Description:    body.Description,
		ConnectionID:   req.QueryStringParameters["connectionId"],
	}
	if err := a.jobs.Enqueue(ctx, job); err != nil {
		// The presentation stays in processing; there is no recovery path here.
		a.log.Warn("generation job not enqueued", zap.String("id", id), zap.Error(err))
	}

	return httpx.JSON(http.StatusOK, map[string]any{
		"presentationId": id,
		"status":         string(models.StatusProcessing),
		"message":        "presentation generation started",
	})
}

func (a *App) listPresentations(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	caller, err := a.identity(ctx, req)
	if err != nil {
		return httpx.Unauthorized()
	}

	list, err := a.store.GetUserPresentations(ctx, caller.Email)
	if err != nil {
		a.log.Error("list presentations failed", zap.String("userId", caller.Email), zap.Error(err))
		return httpx.Internal()
	}
	if list == nil {
		list = []models.PresentationMetadata{}
	}
	return httpx.JSON(http.StatusOK, map[string]any{
		"presentations": list,
		"count":         len(list),
	})
}

// getPresentation is intentionally ownership-unchecked: presentations are
// publicly viewable by id.
func (a *App) getPresentation(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return httpx.BadRequest("missing presentation id")
	}
	p, err := a.store.GetPresentation(ctx, id)
	if err != nil {
		a.log.Error("get presentation failed", zap.String("id", id), zap.Error(err))
		return httpx.Internal()
	}
	if p == nil {
		return httpx.NotFound("presentation not found")
	}
	return httpx.JSON(http.StatusOK, p)
}

type updateRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Theme       *models.Theme `json:"theme"`
}

func (a *App) updatePresentation(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	caller, err := a.identity(ctx, req)
	if err != nil {
		return httpx.Unauthorized()
	}
	id := req.PathParameters["id"]
	if id == "" {
		return httpx.BadRequest("missing presentation id")
	}

	var body updateRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.BadRequest("invalid json")
	}

	meta, err := a.store.GetPresentationMetadata(ctx, id)
	if err != nil {
		a.log.Error("load metadata failed", zap.String("id", id), zap.Error(err))
		return httpx.Internal()
	}
	if meta == nil {
		return httpx.NotFound("presentation not found")
	}
	if !authz.CanModify(a.authActive, caller.Email, meta.UserID) {
		return httpx.Forbidden()
	}

	upd := ddb.MetadataUpdate{Title: body.Title, Description: body.Description, Theme: body.Theme}
	if err := a.store.UpdatePresentationMetadata(ctx, id, upd); err != nil {
		a.log.Error("update presentation failed", zap.String("id", id), zap.Error(err))
		return httpx.Internal()
	}
	return httpx.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) deletePresentation(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	caller, err := a.identity(ctx, req)
	if err != nil {
		return httpx.Unauthorized()
	}
	id := req.PathParameters["id"]
	if id == "" {
		return httpx.BadRequest("missing presentation id")
	}

	meta, err := a.store.GetPresentationMetadata(ctx, id)
	if err != nil {
		a.log.Error("load metadata failed", zap.String("id", id), zap.Error(err))
		return httpx.Internal()
	}
	if meta == nil {
		return httpx.NotFound("presentation not found")
	}
	if !authz.CanModify(a.authActive, caller.Email, meta.UserID) {
		return httpx.Forbidden()
	}

	if err := a.store.DeletePresentation(ctx, id); err != nil {
		a.log.Error("delete presentation failed", zap.String("id", id), zap.Error(err))
		return httpx.Internal()
	}
	return httpx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "presentation deleted",
	})
}
