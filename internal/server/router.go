package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/books-catalog/internal/config"
	"github.com/snnyvrz/books-catalog/internal/handler"
	"github.com/snnyvrz/books-catalog/internal/middleware"
	"github.com/snnyvrz/books-catalog/internal/repository"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/snnyvrz/books-catalog/internal/docs"
)

const swaggerPrefix = "/swagger/"

type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Books     repository.BookRepository
	Limiter   *middleware.RateLimiter
	StartTime time.Time
	Version   string
}

// Interceptors is the ordered middleware applied to every request,
// outermost first.
func Interceptors(cfg *config.Config, log *slog.Logger) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log, cfg.IsDevelopment()),
		middleware.Errors(log, cfg.IsDevelopment()),
		middleware.SecurityHeaders(swaggerPrefix),
		middleware.CORS(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()),
	}
}

func NewRouter(d Deps) *gin.Engine {
	e := gin.New()

	e.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
	})

	e.Use(Interceptors(d.Config, d.Logger)...)
	e.NoRoute(middleware.NotFound())

	healthHandler := handler.NewHealthHandler(d.Books, d.StartTime, d.Version, d.Config.AppEnv)
	healthHandler.RegisterRoutes(e)

	api := e.Group("/api", d.Limiter.Limit())
	{
		bookHandler := handler.NewBookHandler(d.Books)
		bookHandler.RegisterRoutes(api)
	}

	pagesHandler := handler.NewPagesHandler(d.Config.StaticDir)
	pagesHandler.RegisterRoutes(e)

	e.GET(swaggerPrefix+"*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return e
}
