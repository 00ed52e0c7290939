package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/recipechat-server/internal/auth"
	"github.com/vovakirdan/recipechat-server/internal/config"
	"github.com/vovakirdan/recipechat-server/internal/core"
	"github.com/vovakirdan/recipechat-server/internal/store"
)

// Server is the HTTP server plus the websocket handler whose hijacked
// connections it does not track.
type Server struct {
	*stdhttp.Server
	WS *WSHandler
}

// NewServer builds the HTTP server with REST, websocket and ops routes.
// The websocket route sits on the ServeMux in front of gin: gin's writer
// refuses to hijack once the upgrade response has been written.
func NewServer(
	registry *core.Registry,
	bridge *core.Bridge,
	verifier core.IdentityVerifier,
	authService *auth.Service,
	users store.UserStore,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiHandlers := NewAPIHandlers(authService, logger)
	chatHandlers := NewChatHandlers(bridge, registry, logger)
	userHandlers := NewUserHandlers(users, logger)
	requireAuth := AuthMiddleware(verifier, logger)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", apiHandlers.Register)
		authGroup.POST("/login", apiHandlers.Login)
		authGroup.GET("/me", requireAuth, apiHandlers.Me)

		chat := api.Group("/chat", requireAuth)
		chat.GET("/messages", chatHandlers.History)
		chat.GET("/stats", chatHandlers.Stats)

		userGroup := api.Group("/users", requireAuth)
		userGroup.GET("", userHandlers.ListUsers)
		userGroup.GET("/:id", userHandlers.GetUser)
	}

	wsHandler := NewWSHandler(registry, bridge, verifier, cfg, logger)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws/chat", wsHandler)
	mux.Handle("/", router)

	return &Server{
		Server: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		WS: wsHandler,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
