// Package main consumes generation jobs from the queue.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/awsutil"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/config"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/ddb"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/genai"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/notify"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/queue"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/secrets"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/worker"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// App holds the consumer state.
type App struct {
	processor *worker.Processor
	log       *zap.Logger
}

// handler processes one SQS batch. A failing job fails the invocation so
// the queue's redelivery and dead-letter policy applies.
func (a *App) handler(ctx context.Context, event events.SQSEvent) error {
	var firstErr error
	for _, record := range event.Records {
		var job queue.Job
		if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
			a.log.Error("malformed job message",
				zap.String("messageId", record.MessageId), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("malformed job message %s: %w", record.MessageId, err)
			}
			continue
		}
		if err := a.processor.Process(ctx, job); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func main() {
	ctx := context.Background()
	env := config.MustLoad()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, endpoint, err := awsutil.Load(ctx, env.Region)
	if err != nil {
		logger.Fatal("load aws config", zap.Error(err))
	}

	ddbClient := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	var mgmtClient notify.API
	if env.WebsocketEndpoint != "" {
		mgmtClient = apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(env.WebsocketEndpoint)
		})
	}

	apiKey := env.OpenAIAPIKey
	if env.OpenAISecretName != "" {
		cache := secrets.NewCache(secretsmanager.NewFromConfig(cfg))
		apiKey, err = cache.Get(ctx, env.OpenAISecretName)
		if err != nil {
			logger.Fatal("resolve openai key", zap.Error(err))
		}
	}
	gen, err := genai.NewClient(env.OpenAIBaseURL, apiKey, env.OpenAIModel, logger)
	if err != nil {
		logger.Fatal("construct generation client", zap.Error(err))
	}

	app := &App{
		processor: worker.NewProcessor(
			ddb.NewRepo(ddbClient, env.Table, logger),
			gen,
			notify.NewNotifier(mgmtClient, logger),
			logger,
		),
		log: logger,
	}
	lambda.Start(app.handler)
}
