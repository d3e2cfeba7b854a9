package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
)

func CORSMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Private-Key", "X-Signature", "X-Timestamp"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	domains := strings.TrimSpace(cfg.CORS.AllowDomains)
	if domains == "" || domains == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = strings.Split(domains, ",")
	}

	return cors.New(corsConfig)
}
