package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Change kinds delivered to subscribers. Recovery is synthetic: it is
// emitted after a reconnect so observers re-fetch state they may have
// missed while the channel was down.
const (
	ChangeInsert   = "insert"
	ChangeUpdate   = "update"
	ChangeDelete   = "delete"
	ChangeRecovery = "recovery"
)

// ChangeEvent describes one job-row change scoped to an owner.
type ChangeEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Change  string    `json:"change"`
	Status  string    `json:"status,omitempty"`
}

func ownerChannel(ownerID uuid.UUID) string {
	return "docgen.jobs." + ownerID.String()
}

// Publisher fans job-row changes out to the owner's notification channel.
// Called after every insert/update/delete the service performs.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) PublishChange(ctx context.Context, event ChangeEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	return p.rdb.Publish(ctx, ownerChannel(event.OwnerID), raw).Err()
}
