package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

const (
	// TimestampTolerance is the maximum allowed clock skew in seconds
	// between the worker's signature timestamp and the server clock.
	TimestampTolerance = 300
)

// CallbackAuthMiddleware guards the generation worker's callback route.
// Two schemes are accepted:
//  1. Private-Key header holding the shared key directly.
//  2. HMAC signature over METHOD, path, timestamp and body hash, sent as
//     X-Signature plus X-Timestamp.
// Either one passing is enough.
func CallbackAuthMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		privateKey := c.GetHeader("Private-Key")
		if privateKey != "" {
			if utils.SecureCompare(privateKey, cfg.PrivateKey) {
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid private key"})
			c.Abort()
			return
		}

		signature := c.GetHeader("X-Signature")
		timestampStr := c.GetHeader("X-Timestamp")
		if signature == "" || timestampStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Callback authentication is required"})
			c.Abort()
			return
		}

		timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid timestamp"})
			c.Abort()
			return
		}
		skew := time.Now().Unix() - timestamp
		if skew < -TimestampTolerance || skew > TimestampTolerance {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Timestamp outside allowed window"})
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		bodyHash := utils.EmptyBodyHash
		if len(body) > 0 {
			bodyHash = utils.HashBodySHA256(body)
		}

		stringToSign := utils.BuildStringToSign(c.Request.Method, c.Request.URL.Path, timestamp, bodyHash)
		expected := utils.ComputeHMACSHA256(cfg.PrivateKey, stringToSign)

		if !utils.SecureCompare(signature, expected) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
