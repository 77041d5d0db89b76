package server

import (
	"context"
	"net/http"
	"time"

	"app/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

type Server struct {
	echo *echo.Echo
	cfg  config.Config
	log  zerolog.Logger
}

func New(cfg config.Config, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(requestLogger(log))

	return &Server{echo: e, cfg: cfg, log: log}
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// requestLoggerはアクセスログ。エラー詳細はhandler側で出すのでここはメタ情報のみ。
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func (s *Server) Start() error {
	addr := ":8080"
	if s.cfg.Port != "" {
		if s.cfg.Port[0] != ':' {
			addr = ":" + s.cfg.Port
		} else {
			addr = s.cfg.Port
		}
	}

	s.log.Info().Str("addr", addr).Msg("server started")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
