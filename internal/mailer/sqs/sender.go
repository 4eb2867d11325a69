// Package sqs enqueues send requests onto the delivery queue consumed by
// the rendering/transport pipeline.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/smallbiznis/retainly/internal/config"
	"github.com/smallbiznis/retainly/internal/mailer"
	"go.uber.org/zap"
)

type Sender struct {
	client   *sqs.Client
	queueURL string
	log      *zap.Logger
}

// NewSender builds the SQS-backed send boundary. A configured endpoint
// switches to static dummy credentials for local development queues.
func NewSender(ctx context.Context, cfg config.Mailer, log *zap.Logger) (*Sender, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SQSRegion),
	}
	var clientOpts []func(*sqs.Options)
	if cfg.SQSEndpoint != "" {
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))
		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(cfg.SQSEndpoint)
		})
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Sender{
		client:   sqs.NewFromConfig(awsCfg, clientOpts...),
		queueURL: cfg.SQSQueueURL,
		log:      log.Named("mailer.sqs"),
	}, nil
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"TemplateKey": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.TemplateKey),
			},
		},
	})
	if err != nil {
		s.log.Warn("failed to enqueue send request",
			zap.String("template_key", msg.TemplateKey),
			zap.String("customer_id", msg.CustomerID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("enqueue send request: %w", err)
	}
	return nil
}
