// Package queue publishes generation jobs to the worker queue.
package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// Job is the generation queue payload. ConnectionID, when present, lets the
// worker push a completion notification back to the waiting client.
type Job struct {
	PresentationID string `json:"presentationId"`
	UserID         string `json:"userId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ConnectionID   string `json:"connectionId,omitempty"`
}

// API is the subset of the SQS client the publisher uses.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ API = (*sqs.Client)(nil)

// Publisher sends jobs to a single queue.
type Publisher struct {
	api API
	url string
	log *zap.Logger
}

// NewPublisher creates a publisher for the given queue URL. An empty URL
// yields a publisher whose Enqueue always fails; the presentation then
// stays in processing, which is the documented unconfigured-queue behavior.
func NewPublisher(api API, url string, log *zap.Logger) *Publisher {
	return &Publisher{api: api, url: url, log: log}
}

// Enqueue publishes one generation job.
func (p *Publisher) Enqueue(ctx context.Context, job Job) error {
	if p.url == "" {
		return errors.New("generation queue not configured")
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if _, err := p.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.url),
		MessageBody: aws.String(string(body)),
	}); err != nil {
		p.log.Error("enqueue generation job failed",
			zap.String("presentationId", job.PresentationID), zap.Error(err))
		return err
	}
	return nil
}
