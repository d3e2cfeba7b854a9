package controller

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/notify"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

// StreamJobEvents holds an SSE connection open and forwards the owner's
// job change feed. A slow consumer gets a recovery event rather than
// unbounded buffering: when the channel overflows we drop the event and
// inject one recovery marker so the client knows to re-fetch.
func (ctrl *Controller) StreamJobEvents(c *gin.Context) {
	ownerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Authentication required")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := make(chan notify.ChangeEvent, 16)
	sub := ctrl.Propagator.Subscribe(ownerID, func(event notify.ChangeEvent) {
		select {
		case events <- event:
		default:
			select {
			case events <- notify.ChangeEvent{OwnerID: ownerID, Change: notify.ChangeRecovery}:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event := <-events:
			raw, err := json.Marshal(event)
			if err != nil {
				return true
			}
			c.SSEvent("job_change", string(raw))
			return true
		}
	})
}
