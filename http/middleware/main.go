package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/http/controller"
)

type Middlewares struct {
	CORSMiddleware         gin.HandlerFunc
	AuthMiddleware         gin.HandlerFunc
	CallbackAuthMiddleware gin.HandlerFunc
	AdminMiddleware        gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cors := CORSMiddleware(ctrl.Config.EnvConfig)
	auth := AuthMiddleware(ctrl.Config.EnvConfig)
	callbackAuth := CallbackAuthMiddleware(ctrl.Config.EnvConfig)
	admin := AdminMiddleware(ctrl.Repository.PolicyRepo)

	return &Middlewares{
		CORSMiddleware:         cors,
		AuthMiddleware:         auth,
		CallbackAuthMiddleware: callbackAuth,
		AdminMiddleware:        admin,
	}, nil
}
