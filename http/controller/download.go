package controller

import (
	"bytes"
	"fmt"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/transfer"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

// DownloadJobResult streams the completed artifact to the caller. The
// transfer is buffered so a mid-transfer failure still produces a clean
// error response instead of a truncated body.
func (ctrl *Controller) DownloadJobResult(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, jobID, ok := ctrl.ownerAndJobID(c)
	if !ok {
		return
	}

	job, err := ctrl.Service.GetJob(ctx, ownerID, jobID)
	if err != nil {
		ctrl.respondJobError(c, err, "DownloadJobResult")
		return
	}

	var buf bytes.Buffer
	err = ctrl.Service.DownloadResult(ctx, job, &buf, transfer.Options{
		OnError: func(err error) {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Download failed for %s", job.ID)
		},
	})
	if err != nil {
		ctrl.respondJobError(c, err, "DownloadJobResult")
		return
	}

	name := path.Base(job.SourcePath)
	if job.ResultPath != nil && *job.ResultPath != "" {
		name = path.Base(*job.ResultPath)
	}
	contentType := utils.ContentTypeForExtension(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(200, contentType, buf.Bytes())
}
