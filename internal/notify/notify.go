// Package notify pushes best-effort events to connected clients over the
// API Gateway Management API. Failures are logged and discarded; a lost
// notification must never fail the operation that triggered it.
package notify

import (
	"context"
	"encoding/json"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"go.uber.org/zap"
)

// Event types pushed to clients
const (
	TypePresentationCompleted = "presentation-completed"
	TypePresentationFailed    = "presentation-failed"
	TypeSlideUpdated          = "slide-updated"
)

// Event is the notification payload.
type Event struct {
	Type           string                 `json:"type"`
	PresentationID string                 `json:"presentationId,omitempty"`
	Error          string                 `json:"error,omitempty"`
	AffectedSlides []models.AffectedSlide `json:"affectedSlides,omitempty"`
}

// API is the subset of the management client the notifier uses.
type API interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

var _ API = (*apigatewaymanagementapi.Client)(nil)

// Notifier sends events to individual connections. A nil API disables it.
type Notifier struct {
	api API
	log *zap.Logger
}

// NewNotifier creates a notifier; pass a nil api when no websocket endpoint
// is configured.
func NewNotifier(api API, log *zap.Logger) *Notifier {
	return &Notifier{api: api, log: log}
}

// Push delivers the event to the connection. It never returns an error:
// an empty connection id, a disabled notifier, and a gone connection are
// all silently accepted.
func (n *Notifier) Push(ctx context.Context, connectionID string, event Event) {
	if n.api == nil || connectionID == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.log.Warn("marshal notification failed", zap.Error(err))
		return
	}
	_, err = n.api.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         body,
	})
	if err != nil {
		n.log.Warn("push notification failed",
			zap.String("connectionId", connectionID),
			zap.String("type", event.Type),
			zap.Error(err))
	}
}
