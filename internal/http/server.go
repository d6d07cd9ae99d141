package http

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkarimian/cardlab/internal/command"
	"github.com/nkarimian/cardlab/internal/config"
	"github.com/nkarimian/cardlab/internal/logger"
	"github.com/nkarimian/cardlab/internal/metrics"
	"github.com/nkarimian/cardlab/internal/money"
	"github.com/nkarimian/cardlab/internal/platform"
	"github.com/nkarimian/cardlab/internal/registry"
	"github.com/nkarimian/cardlab/internal/setup"
	"github.com/nkarimian/cardlab/internal/transaction"
)

//go:embed web/index.html
var indexPage []byte

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config) *Server {
	reg := registry.New()

	client := platform.New(
		cfg.Platform.BaseURL,
		cfg.Platform.ApplicationToken,
		cfg.Platform.AdminToken,
		nil,
		logger.Log,
	)

	setupOrc := setup.New(client, reg, setup.Config{
		BalanceLimit:   money.Cents(cfg.Limits.BalanceLimitCents),
		Currency:       cfg.Limits.Currency,
		VelocityWindow: cfg.Limits.VelocityWindow,
	}, logger.Log)

	txnOrc := transaction.New(client, reg, cfg.Webhook.Username, cfg.Webhook.Password, logger.Log)

	dispatcher := command.NewDispatcher(setupOrc, txnOrc, cfg.PIN)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// demo page
	e.GET("/", func(c echo.Context) error { return c.HTMLBlob(http.StatusOK, indexPage) })

	// command API
	api := e.Group("/api")
	api.POST("/command", commandHandler(dispatcher))
	api.POST("/pay", payHandler(dispatcher))
	api.POST("/pay/pin", payPINHandler(dispatcher))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	logger.Log.Sugar().Infof("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

// Handler exposes the routing tree for in-process tests.
func (s *Server) Handler() http.Handler { return s.e }
