package stubapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"cyberguard/internal/auth"
	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
	"cyberguard/internal/validation"
)

// Options configures the stub server.
type Options struct {
	Store   *Store
	JWT     *auth.JWTService
	Refresh auth.RefreshStore
	Logger  *zap.Logger
	// Now drives chatbot timestamps. Defaults to time.Now.
	Now func() time.Time
	// RequestLog enables echo's request logger.
	RequestLog bool
}

// New builds an echo instance serving the API under /api.
func New(opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	if opts.Refresh == nil {
		opts.Refresh = auth.NewMemoryRefreshStore()
	}
	if opts.JWT == nil {
		opts.JWT = auth.NewJWTService(uuid.NewString())
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	Register(e, opts,
		NewAuthHandler(opts.Store, opts.JWT, opts.Refresh, opts.Logger),
		NewUserHandler(opts.Store),
		NewPostHandler(opts.Store),
		NewReportHandler(opts.Store, opts.JWT),
		NewChatHandler(opts.Now),
	)
	return e
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	opts Options,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	postHandler *PostHandler,
	reportHandler *ReportHandler,
	chatHandler *ChatHandler,
) {
	e.Use(middleware.RequestID())
	if opts.RequestLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = validation.New()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/posts", postHandler.ListPosts)
	api.GET("/posts/:id", postHandler.GetPost)
	api.POST("/reports", reportHandler.CreateReport)
	api.POST("/chatbot/chat", chatHandler.Chat)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  opts.JWT.Secret(),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  claimsKey,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return opts.JWT.ValidateToken(token)
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "Token is not valid",
				Code:  "INVALID_TOKEN",
			}).SetInternal(err)
		},
	}))

	secured.GET("/auth/user", authHandler.CurrentUser)
	secured.PATCH("/auth/profile", authHandler.UpdateProfile)

	secured.POST("/posts", postHandler.CreatePost)
	secured.POST("/posts/:id/like", postHandler.ToggleLike)
	secured.POST("/posts/:id/comments", postHandler.AddComment)
	secured.POST("/posts/:id/comments/:cid/replies", postHandler.AddReply)
	secured.DELETE("/posts/:id/comments/:cid", postHandler.DeleteComment)
	secured.POST("/posts/:id/react", postHandler.React)
	secured.POST("/posts/:id/flag", postHandler.FlagPost)
	secured.DELETE("/posts/:id", postHandler.DeletePost)
	secured.POST("/moderation/:id", postHandler.FlagPost)

	secured.GET("/reports", reportHandler.ListReports)
	secured.GET("/reports/flagged", reportHandler.FlaggedReports)
	secured.GET("/reports/:id", reportHandler.GetReport)
	secured.PATCH("/reports/:id/flag", reportHandler.FlagReport)
	secured.PATCH("/reports/:id/react", reportHandler.React)

	moderators := secured.Group("", requireRole(opts.Store, model.RoleModerator))
	moderators.GET("/posts/flagged", postHandler.FlaggedPosts)
	moderators.PATCH("/reports/:id/progress", reportHandler.UpdateProgress)
	moderators.POST("/reports/:id/update", reportHandler.AddUpdate)

	admins := secured.Group("", requireRole(opts.Store, model.RoleAdmin))
	admins.DELETE("/reports/:id", reportHandler.DeleteReport)
	admins.GET("/auth/users", userHandler.ListUsers)
	admins.GET("/auth/user/:id", userHandler.GetUser)
	admins.POST("/auth/admin", userHandler.CreateAdmin)
	admins.PATCH("/auth/promote/:id", userHandler.Promote)
	admins.DELETE("/auth/user/:id", userHandler.DeleteUser)
}
