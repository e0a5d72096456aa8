package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/service/game"
	"github.com/iamasit07/connect4-arena/internal/service/matchmaking"
	"github.com/iamasit07/connect4-arena/internal/transport/http/middleware"
)

// RouterConfig carries everything NewRouter wires into routes.
type RouterConfig struct {
	Service        *game.Service
	Queue          *matchmaking.Queue // optional
	Sockets        SpectatorCounter
	WebSocket      http.HandlerFunc
	AllowedOrigins []string
	StaticDir      string // optional SPA bundle
	MaxAnalyses    int    // concurrent /api/analyze searches
}

func NewRouter(rc RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(rc.AllowedOrigins))

	gameHandler := NewGameHandler(rc.Service, rc.MaxAnalyses)
	historyHandler := NewHistoryHandler(rc.Service)
	watchHandler := NewWatchHandler(rc.Service.Sessions, rc.Sockets)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": rc.Service.Sessions.Len()})
	})

	api := router.Group("/api")
	{
		api.GET("/games", watchHandler.GetLiveGames)
		api.POST("/games", gameHandler.CreateGame)
		api.GET("/games/:id", gameHandler.GetGame)
		api.POST("/games/:id/join", gameHandler.JoinGame)
		api.POST("/analyze", gameHandler.Analyze)

		api.GET("/history", historyHandler.GetHistory)
		api.GET("/history/:id", historyHandler.GetGameDetails)
	}

	if rc.Queue != nil {
		mm := NewMatchmakingHandler(rc.Queue)
		api.POST("/matchmaking", mm.JoinQueue)
		api.GET("/matchmaking/:ticket", mm.PollTicket)
		api.DELETE("/matchmaking/:ticket", mm.LeaveQueue)
	}

	// Seat-token protected routes
	seated := api.Group("/games/:id")
	seated.Use(middleware.SeatAuthMiddleware())
	{
		seated.POST("/moves", gameHandler.MakeMove)
		seated.POST("/takeback", gameHandler.Takeback)
		seated.POST("/reset", gameHandler.Reset)
	}

	// WebSocket Route (auth handled inside the WS handler itself)
	if rc.WebSocket != nil {
		router.GET("/ws", gin.WrapF(rc.WebSocket))
	}

	if rc.StaticDir != "" {
		serveSPA(router, rc.StaticDir)
	}
	return router
}

func serveSPA(router *gin.Engine, dir string) {
	if _, err := os.Stat(dir); err != nil {
		return
	}
	index := filepath.Join(dir, "index.html")
	router.Static("/assets", filepath.Join(dir, "assets"))
	router.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	// SPA fallback: serve index.html for all unmatched routes
	router.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+p))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		if strings.HasPrefix(p, "/assets/") || strings.HasSuffix(p, ".css") || strings.HasSuffix(p, ".js") {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(index)
	})
}
