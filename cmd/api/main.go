// Package main serves the presentation HTTP API.
package main

import (
	"context"
	"log"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/auth"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/awsutil"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/config"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/ddb"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/genai"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/handlers"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/notify"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/queue"
	"github.com/OneMuppet/ai-transformation-presentation-api/internal/secrets"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

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
	sqsClient := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
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

	var verifier handlers.Verifier
	if env.AuthActive() {
		verifier = auth.NewVerifier(env.GoogleClientID, env.AllowedEmails, logger)
	}

	app := handlers.NewApp(
		env.AuthActive(),
		ddb.NewRepo(ddbClient, env.Table, logger),
		verifier,
		gen,
		queue.NewPublisher(sqsClient, env.QueueURL, logger),
		notify.NewNotifier(mgmtClient, logger),
		logger,
	)
	lambda.Start(app.Handle)
}
