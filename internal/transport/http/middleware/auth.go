package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/pkg/auth"
	"github.com/rs/zerolog/log"
)

const seatClaimsKey = "seat_claims"

// SeatAuthMiddleware requires a seat token (Authorization: Bearer <token>)
// for the game named by the :id route parameter.
func SeatAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := auth.ValidateSeatToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if id := c.Param("id"); id != "" && id != claims.GameID {
			log.Warn().Str("component", "http").Str("game_id", id).Str("token_game", claims.GameID).Msg("seat token used for another game")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token is for a different game"})
			return
		}

		c.Set(seatClaimsKey, claims)
		c.Next()
	}
}

// SeatPlayer returns the player bound by SeatAuthMiddleware.
func SeatPlayer(c *gin.Context) (domain.PlayerID, bool) {
	v, ok := c.Get(seatClaimsKey)
	if !ok {
		return domain.Empty, false
	}
	claims, ok := v.(*auth.SeatClaims)
	if !ok {
		return domain.Empty, false
	}
	return claims.Player, true
}
