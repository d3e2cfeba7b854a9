package produce

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SubmitJobQueue      = "docgen.submit"
	SubmitJobExchange   = "docgen.exchange"
	SubmitJobRoutingKey = "docgen.submit"
)

// SubmitJobMessage carries one pending job id to the submission consumer.
// The row itself is the source of truth; the message is only a nudge, so
// redelivery is harmless.
type SubmitJobMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	Timestamp int64     `json:"timestamp"`
}

// JobProduceService publishes submission dispatch messages.
type JobProduceService struct {
	channel *amqp.Channel
}

func InitJobProduceService(channel *amqp.Channel) *JobProduceService {
	service := &JobProduceService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		SubmitJobExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Docgen exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		SubmitJobQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare Submit Job queue: " + err.Error())
	}

	err = channel.QueueBind(
		SubmitJobQueue,
		SubmitJobRoutingKey,
		SubmitJobExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Submit Job queue: " + err.Error())
	}

	return service
}

// PublishSubmitJob publishes a submission dispatch message for the job.
func (s *JobProduceService) PublishSubmitJob(ctx context.Context, jobID uuid.UUID) error {
	msg := SubmitJobMessage{
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		SubmitJobExchange,
		SubmitJobRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
