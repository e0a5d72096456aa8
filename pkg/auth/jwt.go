package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iamasit07/connect4-arena/internal/config"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/pkg/uid"
)

// SeatClaims binds a bearer to one seat of one game.
type SeatClaims struct {
	GameID string          `json:"game_id"`
	Player domain.PlayerID `json:"player"`
	jwt.RegisteredClaims
}

// GenerateSeatToken signs a token for player's seat in gameID.
func GenerateSeatToken(gameID string, player domain.PlayerID) (string, error) {
	secret := config.AppConfig.JWTSecret
	ttl := config.AppConfig.SeatTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := &SeatClaims{
		GameID: gameID,
		Player: player,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uid.GenerateTokenID(),
			Subject:   gameID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSeatToken validates a seat token and returns its claims
func ValidateSeatToken(tokenString string) (*SeatClaims, error) {
	secret := config.AppConfig.JWTSecret

	token, err := jwt.ParseWithClaims(tokenString, &SeatClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SeatClaims)
	if !ok || !token.Valid || !claims.Player.Valid() || claims.GameID == "" {
		return nil, errors.New("invalid seat token")
	}
	return claims, nil
}
