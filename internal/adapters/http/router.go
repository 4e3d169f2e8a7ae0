package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"watchparty/internal/adapters/signal"
	"watchparty/internal/app"
	"watchparty/internal/config"
)

// ClientTokenMiddleware issues a uuid cookie identifying the browser.
// Live-connection identities are minted per socket at upgrade time;
// authentication proper is upstream's business.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("WatchPartySessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	started := time.Now()

	r.POST("/create-room", func(c *gin.Context) {
		room := coord.Rooms.CreateRoom()
		c.JSON(http.StatusCreated, gin.H{"roomCode": room.Code()})
	})

	// Read-only metadata; no join required.
	r.GET("/room/:code", func(c *gin.Context) {
		room, ok := coord.Rooms.GetRoom(c.Param("code"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"roomCode":     room.Code(),
			"userCount":    room.MemberCount(),
			"currentVideo": room.Playback(),
			"exists":       true,
		})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
			"rooms":     coord.Rooms.Count(),
			"uptime":    time.Since(started).Round(time.Second).String(),
		})
	})

	ctl := signal.NewController(coord, cfg)
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	return r
}
