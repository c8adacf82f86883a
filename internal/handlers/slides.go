package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/authz"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/httpx"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/notify"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

type addSlideRequest struct {
	Instruction string `json:"instruction"`
	Position    *int   `json:"position"`
	SlideType   string `json:"slideType,omitempty"`
}

// loadOwned fetches the full presentation and enforces ownership. The
// returned response is non-nil when the request was already answered.
func (a *App) loadOwned(ctx context.Context, req events.APIGatewayV2HTTPRequest) (*models.Presentation, *events.APIGatewayV2HTTPResponse, error) {
	caller, err := a.identity(ctx, req)
	if err != nil {
		resp, err := httpx.Unauthorized()
		return nil, &resp, err
	}
	id := req.PathParameters["id"]
	if id == "" {
		resp, err := httpx.BadRequest("missing presentation id")
		return nil, &resp, err
	}

	p, err := a.store.GetPresentation(ctx, id)
	if err != nil {
		a.log.Error("load presentation failed", zap.String("id", id), zap.Error(err))
		resp, err := httpx.Internal()
		return nil, &resp, err
	}
	if p == nil {
		resp, err := httpx.NotFound("presentation not found")
		return nil, &resp, err
	}
	if !authz.CanModify(a.authActive, caller.Email, p.UserID) {
		resp, err := httpx.Forbidden()
		return nil, &resp, err
	}
	return p, nil, nil
}

// slideIndexFromPath parses the {index} path parameter.
func slideIndexFromPath(req events.APIGatewayV2HTTPRequest) (int, error) {
	raw := req.PathParameters["index"]
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid slide index %q", raw)
	}
	return index, nil
}

// applyAffected overlays the model's changed slides onto the current list.
// Indices outside the list are dropped rather than trusted.
func (a *App) applyAffected(id string, slides []models.SlideContent, affected []models.AffectedSlide) []models.SlideContent {
	out := make([]models.SlideContent, len(slides))
	copy(out, slides)
	for _, af := range affected {
		if af.SlideIndex < 0 || af.SlideIndex >= len(out) {
			a.log.Warn("model returned out-of-range slide index",
				zap.String("id", id), zap.Int("slideIndex", af.SlideIndex))
			continue
		}
		out[af.SlideIndex] = af.Slide
	}
	return out
}

func (a *App) updateSlide(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	index, err := slideIndexFromPath(req)
	if err != nil {
		return httpx.BadRequest(err.Error())
	}
	var body instructionRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if body.Instruction == "" {
		return httpx.BadRequest("instruction is required")
	}

	p, early, err := a.loadOwned(ctx, req)
	if early != nil {
		return *early, err
	}
	if index >= len(p.Slides) {
		return httpx.BadRequest(fmt.Sprintf("slide index %d out of range; valid range is 0..%d", index, len(p.Slides)-1))
	}

	affected, err := a.gen.EditSlide(ctx, p, index, body.Instruction)
	if err != nil {
		a.log.Error("edit slide failed", zap.String("id", p.ID), zap.Int("index", index), zap.Error(err))
		return httpx.Internal()
	}

	// Full resave keeps indices contiguous regardless of what the model touched.
	updated := a.applyAffected(p.ID, p.Slides, affected)
	if err := a.store.SaveSlides(ctx, p.ID, updated); err != nil {
		a.log.Error("save slides failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}

	a.notifier.Push(ctx, req.QueryStringParameters["connectionId"], notify.Event{
		Type:           notify.TypeSlideUpdated,
		PresentationID: p.ID,
		AffectedSlides: affected,
	})
	return httpx.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"affectedSlides": affected,
	})
}

func (a *App) addSlide(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var body addSlideRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if body.Instruction == "" {
		return httpx.BadRequest("instruction is required")
	}
	if body.Position == nil {
		return httpx.BadRequest("position is required")
	}

	p, early, err := a.loadOwned(ctx, req)
	if early != nil {
		return *early, err
	}
	position := *body.Position
	// position == len appends after the last slide.
	if position < 0 || position > len(p.Slides) {
		return httpx.BadRequest(fmt.Sprintf("invalid position %d; valid range is 0..%d", position, len(p.Slides)))
	}

	slide, err := a.gen.GenerateSlide(ctx, p, body.Instruction, position, body.SlideType)
	if err != nil {
		a.log.Error("generate slide failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}

	updated := make([]models.SlideContent, 0, len(p.Slides)+1)
	updated = append(updated, p.Slides[:position]...)
	updated = append(updated, slide)
	updated = append(updated, p.Slides[position:]...)
	if err := a.store.SaveSlides(ctx, p.ID, updated); err != nil {
		a.log.Error("save slides failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}

	a.notifier.Push(ctx, req.QueryStringParameters["connectionId"], notify.Event{
		Type:           notify.TypeSlideUpdated,
		PresentationID: p.ID,
		AffectedSlides: []models.AffectedSlide{{SlideIndex: position, Slide: slide}},
	})
	return httpx.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"slide":      slide,
		"slideIndex": position,
	})
}

func (a *App) deleteSlide(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	index, err := slideIndexFromPath(req)
	if err != nil {
		return httpx.BadRequest(err.Error())
	}

	p, early, err := a.loadOwned(ctx, req)
	if early != nil {
		return *early, err
	}
	if index >= len(p.Slides) {
		return httpx.BadRequest(fmt.Sprintf("slide index %d out of range; valid range is 0..%d", index, len(p.Slides)-1))
	}
	if len(p.Slides) == 1 {
		return httpx.BadRequest("cannot delete the last remaining slide")
	}

	remaining := make([]models.SlideContent, 0, len(p.Slides)-1)
	remaining = append(remaining, p.Slides[:index]...)
	remaining = append(remaining, p.Slides[index+1:]...)

	// Resave the contiguous list, then drop the now-orphaned trailing
	// record; SaveSlides never deletes beyond the new length.
	if err := a.store.SaveSlides(ctx, p.ID, remaining); err != nil {
		a.log.Error("save slides failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}
	if err := a.store.DeleteSlide(ctx, p.ID, len(p.Slides)-1); err != nil {
		a.log.Error("delete trailing slide failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}

	return httpx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("slide %d deleted", index),
	})
}

func (a *App) refinePresentation(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var body instructionRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if body.Instruction == "" {
		return httpx.BadRequest("instruction is required")
	}

	p, early, err := a.loadOwned(ctx, req)
	if early != nil {
		return *early, err
	}

	affected, err := a.gen.RefinePresentation(ctx, p, body.Instruction)
	if err != nil {
		a.log.Error("refine presentation failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}

	updated := a.applyAffected(p.ID, p.Slides, affected)
	if err := a.store.SaveSlides(ctx, p.ID, updated); err != nil {
		a.log.Error("save slides failed", zap.String("id", p.ID), zap.Error(err))
		return httpx.Internal()
	}

	a.notifier.Push(ctx, req.QueryStringParameters["connectionId"], notify.Event{
		Type:           notify.TypeSlideUpdated,
		PresentationID: p.ID,
		AffectedSlides: affected,
	})
	return httpx.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"affectedSlides": affected,
	})
}
