package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iamasit07/connect4-arena/internal/config"
	"github.com/iamasit07/connect4-arena/internal/domain"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestSeatTokenRoundTrip(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "test-secret", SeatTokenTTL: time.Hour})

	token, err := GenerateSeatToken("game-1", domain.Player2)
	if err != nil {
		t.Fatalf("GenerateSeatToken: %v", err)
	}
	claims, err := ValidateSeatToken(token)
	if err != nil {
		t.Fatalf("ValidateSeatToken: %v", err)
	}
	if claims.GameID != "game-1" || claims.Player != domain.Player2 {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSeatTokenRejects(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "test-secret", SeatTokenTTL: time.Hour})
	good, err := GenerateSeatToken("game-1", domain.Player1)
	if err != nil {
		t.Fatal(err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &SeatClaims{
		GameID: "game-1",
		Player: domain.Player1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, _ := expired.SignedString([]byte("test-secret"))

	noSeat := jwt.NewWithClaims(jwt.SigningMethodHS256, &SeatClaims{GameID: "game-1"})
	noSeatToken, _ := noSeat.SignedString([]byte("test-secret"))

	tests := map[string]string{
		"garbage":      "not-a-token",
		"tampered":     good + "x",
		"expired":      expiredToken,
		"missing seat": noSeatToken,
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ValidateSeatToken(token); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	config.AppConfig = &config.Config{JWTSecret: "other-secret"}
	if _, err := ValidateSeatToken(good); err == nil {
		t.Fatal("token accepted under a different secret")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Error("wrong password accepted")
	}

	if err := ValidateGamePassword("abc"); err == nil {
		t.Error("short password accepted")
	}
	if err := ValidateGamePassword(strings.Repeat("x", 73)); err == nil {
		t.Error("overlong password accepted")
	}
	if err := ValidateGamePassword("abcd"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
}
