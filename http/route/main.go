package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/http/controller"
	middlewares "github.com/tnqbao/gau-docgen-orchestrator/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1/docgen")
	{
		// The worker callback authenticates with the shared key, not a
		// user token.
		apiRoutes.POST("/callback", middles.CallbackAuthMiddleware, ctrl.HandleGenerationCallback)

		jobRoutes := apiRoutes.Group("/jobs")
		{
			jobRoutes.Use(middles.AuthMiddleware)

			jobRoutes.POST("/", ctrl.CreateJob)
			jobRoutes.GET("/", ctrl.ListJobs)
			jobRoutes.GET("/events", ctrl.StreamJobEvents)
			jobRoutes.GET("/:id", ctrl.GetJobByID)
			jobRoutes.GET("/:id/download", ctrl.DownloadJobResult)
			jobRoutes.GET("/:id/audit", ctrl.GetJobAuditTrail)
			jobRoutes.DELETE("/:id", ctrl.DeleteJobByID)
		}

		policyRoutes := apiRoutes.Group("/policies")
		{
			policyRoutes.Use(middles.AuthMiddleware, middles.AdminMiddleware)

			policyRoutes.POST("/", ctrl.GrantCapability)
			policyRoutes.DELETE("/", ctrl.RevokeCapability)
		}
	}
	return r
}
