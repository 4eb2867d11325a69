// Package mailer is the send boundary. The campaign engine decides whether
// and what to send; rendering and transport live behind this interface.
package mailer

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Message is the logical send request handed to the boundary. Data is
// opaque template input; the delivery pipeline owns rendering.
type Message struct {
	TemplateKey string         `json:"template_key"`
	CustomerID  snowflake.ID   `json:"customer_id"`
	Recipient   string         `json:"recipient"`
	Data        map[string]any `json:"data"`
}

// Sender attempts delivery of one message. Failures are reported as plain
// errors; the engine records the message string and moves on.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. Default
// for development and the log mailer mode.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("mailer.log")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("send",
		zap.String("template_key", msg.TemplateKey),
		zap.String("customer_id", msg.CustomerID.String()),
		zap.String("recipient", msg.Recipient),
		zap.Any("data", msg.Data),
	)
	return nil
}
