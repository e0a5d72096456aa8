package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamasit07/connect4-arena/internal/config"
	"github.com/iamasit07/connect4-arena/internal/repository/postgres"
	"github.com/iamasit07/connect4-arena/internal/repository/redis"
	"github.com/iamasit07/connect4-arena/internal/service/cleanup"
	"github.com/iamasit07/connect4-arena/internal/service/game"
	"github.com/iamasit07/connect4-arena/internal/service/matchmaking"
	transportHttp "github.com/iamasit07/connect4-arena/internal/transport/http"
	"github.com/iamasit07/connect4-arena/internal/transport/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("../.env")
	}

	cfg := config.LoadConfig()
	config.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		log.Info().Msg("No .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Persistence. Both stores are optional.
	var repo game.GameRepository
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		repo = postgres.NewGameRepo(db)
		log.Info().Msg("Database ready, finished games will be archived")
	} else {
		log.Warn().Msg("DATABASE_URL not set, game history is disabled")
	}

	var cache game.SnapshotCache
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis, continuing without snapshot cache")
		} else {
			defer client.Close()
			cache = redis.NewSnapshotCache(client, cfg.SnapshotTTL)
		}
	}

	// 2. Services
	connManager := websocket.NewConnectionManager()
	sessionManager := game.NewSessionManager(connManager, repo, cache, game.Options{
		Width:       cfg.BoardColumns,
		Height:      cfg.BoardRows,
		SearchDepth: cfg.SearchDepth,
		BotDelay:    cfg.BotMoveDelay,
	})
	gameService := game.NewService(sessionManager, repo, cache)

	// 3. Background workers
	cleanup.NewWorker(sessionManager, cfg.FinishedSessionTTL, cfg.SessionIdleTTL).Start(ctx)

	queue := matchmaking.NewQueue(cfg.MatchmakingTimeout)
	go matchmaking.Listener(ctx, queue, sessionManager)

	// 4. Transport
	wsHandler := websocket.NewHandler(connManager, sessionManager, cfg.AllowedOrigins)
	router := transportHttp.NewRouter(transportHttp.RouterConfig{
		Service:        gameService,
		Queue:          queue,
		Sockets:        connManager,
		WebSocket:      wsHandler.HandleWebSocket,
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      "./static",
		MaxAnalyses:    cfg.MaxAnalyses,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	for _, s := range sessionManager.ListSessions() {
		sessionManager.RemoveSession(s.ID)
	}

	log.Info().Msg("Server exited gracefully")
}
