package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
	"github.com/tnqbao/gau-docgen-orchestrator/infra"
	"github.com/tnqbao/gau-docgen-orchestrator/infra/produce"
	"github.com/tnqbao/gau-docgen-orchestrator/service"
)

type SubmitConsumer struct {
	channel *amqp.Channel
	infra   *infra.Infra
	service *service.JobService
}

func NewSubmitConsumer(channel *amqp.Channel, infra *infra.Infra, svc *service.JobService) *SubmitConsumer {
	return &SubmitConsumer{
		channel: channel,
		infra:   infra,
		service: svc,
	}
}

func (c *SubmitConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.SubmitJobQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register submit consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Submit Consumer] Started listening on queue: %s", produce.SubmitJobQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Submit Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Submit Consumer] Channel closed")
					return
				}
				c.handleSubmitJob(ctx, msg)
			}
		}
	}()

	return nil
}

// handleSubmitJob hands one queued job to the generation worker. A job
// that already left PENDING is a redelivery and is dropped. Transient
// failures requeue; by then the job row is already FAILED, so the
// redelivery resolves as a no-op instead of looping.
func (c *SubmitConsumer) handleSubmitJob(ctx context.Context, msg amqp.Delivery) {
	var payload produce.SubmitJobMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Submit Consumer] Dropping malformed message")
		_ = msg.Ack(false)
		return
	}

	if err := c.service.Submit(ctx, payload.JobID); err != nil {
		if errors.Is(err, entity.ErrJobNotFound) {
			c.infra.Logger.WarningWithContextf(ctx, "[Submit Consumer] Job %s no longer exists, dropping", payload.JobID)
			_ = msg.Ack(false)
			return
		}
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Submit Consumer] Failed to submit job %s", payload.JobID)
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}
