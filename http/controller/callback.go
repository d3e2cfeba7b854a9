package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/http/controller/dto"
	"github.com/tnqbao/gau-docgen-orchestrator/service"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

// HandleGenerationCallback receives the worker's completion report. The
// route is protected by the callback auth middleware; by the time this
// runs the signature already checked out. Conflict responses tell the
// worker to retry later, success responses include duplicates so the
// worker stops redelivering.
func (ctrl *Controller) HandleGenerationCallback(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerationCallbackDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid callback payload")
		return
	}

	err := ctrl.Service.HandleCallback(ctx, service.CallbackInput{
		JobID:      req.JobID,
		Success:    req.Success,
		ResultPath: req.ResultPath,
		Message:    req.Message,
	})
	if err != nil {
		ctrl.respondJobError(c, err, "HandleGenerationCallback")
		return
	}

	utils.JSON200(c, gin.H{"job_id": req.JobID, "accepted": true})
}
