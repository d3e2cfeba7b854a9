package controller

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
	"github.com/tnqbao/gau-docgen-orchestrator/http/controller/dto"
	"github.com/tnqbao/gau-docgen-orchestrator/service"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

func (ctrl *Controller) CreateJob(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Authentication required")
		return
	}

	var req dto.CreateJobRequestDTO
	if err := c.ShouldBind(&req); err != nil {
		utils.JSON400(c, "Invalid request payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSON400(c, "Source document file is required")
		return
	}
	if fileHeader.Size > ctrl.Config.EnvConfig.Docgen.MaxUploadBytes {
		utils.JSON400(c, "Source document exceeds the upload limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to open uploaded file")
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ctrl.Config.EnvConfig.Docgen.MaxUploadBytes+1))
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to read uploaded file")
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}

	job, err := ctrl.Service.CreateJob(ctx, service.CreateJobInput{
		Kind:      req.Kind,
		OwnerID:   ownerID,
		FileName:  fileHeader.Filename,
		TargetURL: req.TargetURL,
		Data:      data,
	})
	if err != nil {
		ctrl.respondJobError(c, err, "CreateJob")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Created %s job %s for owner %s", job.Kind, job.ID, job.OwnerID)
	utils.JSON201(c, job)
}

func (ctrl *Controller) ListJobs(c *gin.Context) {
	ownerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Authentication required")
		return
	}

	jobs, err := ctrl.Service.ListJobs(c.Request.Context(), ownerID)
	if err != nil {
		ctrl.respondJobError(c, err, "ListJobs")
		return
	}

	utils.JSON200(c, jobs)
}

func (ctrl *Controller) GetJobByID(c *gin.Context) {
	ownerID, jobID, ok := ctrl.ownerAndJobID(c)
	if !ok {
		return
	}

	job, err := ctrl.Service.GetJob(c.Request.Context(), ownerID, jobID)
	if err != nil {
		ctrl.respondJobError(c, err, "GetJobByID")
		return
	}

	utils.JSON200(c, job)
}

func (ctrl *Controller) DeleteJobByID(c *gin.Context) {
	ownerID, jobID, ok := ctrl.ownerAndJobID(c)
	if !ok {
		return
	}

	if err := ctrl.Service.DeleteJob(c.Request.Context(), ownerID, jobID); err != nil {
		ctrl.respondJobError(c, err, "DeleteJobByID")
		return
	}

	utils.JSON200(c, gin.H{"deleted": jobID})
}

func (ctrl *Controller) GetJobAuditTrail(c *gin.Context) {
	ownerID, jobID, ok := ctrl.ownerAndJobID(c)
	if !ok {
		return
	}

	events, err := ctrl.Service.AuditTrail(c.Request.Context(), ownerID, jobID)
	if err != nil {
		ctrl.respondJobError(c, err, "GetJobAuditTrail")
		return
	}

	utils.JSON200(c, events)
}

func (ctrl *Controller) GrantCapability(c *gin.Context) {
	var req dto.GrantCapabilityRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request payload")
		return
	}

	if err := ctrl.Repository.PolicyRepo.Grant(c.Request.Context(), req.OwnerID, req.Capability); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Policy] Failed to grant capability")
		utils.JSON500(c, "Failed to grant capability")
		return
	}

	utils.JSON201(c, gin.H{"owner_id": req.OwnerID, "capability": req.Capability})
}

func (ctrl *Controller) RevokeCapability(c *gin.Context) {
	var req dto.GrantCapabilityRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request payload")
		return
	}

	if err := ctrl.Repository.PolicyRepo.Revoke(c.Request.Context(), req.OwnerID, req.Capability); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Policy] Failed to revoke capability")
		utils.JSON500(c, "Failed to revoke capability")
		return
	}

	utils.JSON200(c, gin.H{"owner_id": req.OwnerID, "capability": req.Capability})
}

func (ctrl *Controller) ownerAndJobID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	ownerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid job id")
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, jobID, true
}

// respondJobError maps service errors onto HTTP responses in one place so
// every handler reports the same way.
func (ctrl *Controller) respondJobError(c *gin.Context, err error, op string) {
	ctx := c.Request.Context()

	var validationErr *entity.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.JSON400(c, validationErr.Error())
	case errors.Is(err, entity.ErrJobNotFound):
		utils.JSON404(c, "Job not found")
	case errors.Is(err, entity.ErrArtifactNotFound):
		utils.JSON404(c, "Artifact not found")
	case errors.Is(err, entity.ErrCapabilityRequired):
		utils.JSON403(c, "Owner is not enrolled for this job kind")
	case errors.Is(err, entity.ErrResultNotReady):
		utils.JSON409(c, "Job result is not ready")
	case errors.Is(err, entity.ErrCallbackBeforeSubmission):
		utils.JSON409(c, "Callback arrived before submission completed")
	default:
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] %s failed", op)
		utils.JSON500(c, "Internal server error")
	}
}
