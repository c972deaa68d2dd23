package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	firebaseutil "github.com/azro1/flare-care-sub001/internal/firebase"
)

// AuthMiddleware validates the session bearer token and sets the user UID on
// the request context. Resolution order: Redis session cache, then the users
// table, then Firebase ID-token verification as the last resort.
func AuthMiddleware(firebaseApp *firebase.App, postgres *pgxpool.Pool, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with 'Bearer '"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, bearerPrefix)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			c.Abort()
			return
		}

		ctx := context.Background()
		sessionKey := fmt.Sprintf("session:%s", token)

		// Step 1: Redis session cache
		userUID, err := redisClient.Get(ctx, sessionKey).Result()
		if err != nil {
			userUID = ""
		}

		// Step 2: users table
		if userUID == "" {
			query := `SELECT uid FROM users WHERE token = $1`
			if err := postgres.QueryRow(ctx, query, token).Scan(&userUID); err != nil {
				userUID = ""
			}
		}

		// Step 3: verify with the identity provider
		if userUID == "" {
			authClient, err := firebaseutil.GetAuthClient(firebaseApp)
			if err == nil {
				if idToken, err := authClient.VerifyIDToken(ctx, token); err == nil {
					userUID = idToken.UID
				}
			}
		}

		if userUID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Cache the resolved session for subsequent requests
		redisClient.Set(ctx, sessionKey, userUID, time.Hour)

		c.Set("uid", userUID)
		c.Next()
	}
}
