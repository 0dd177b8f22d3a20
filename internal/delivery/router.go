package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const shutdownTimeout = 10 * time.Second

// NewApp собирает fiber приложение со всеми маршрутами.
// Любая необработанная ошибка превращается в конверт.
func NewApp(h *Handler, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tg-link-service",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				log.Error("HTTP error", "code", fiberErr.Code, "error", fiberErr.Message,
					"path", c.Path(), "method", c.Method(), "request_id", requestID(c))
				return respondWithError(c, fiberErr.Code, fiberErr.Message)
			}
			log.Error("unhandled exception", "error", err,
				"path", c.Path(), "method", c.Method(), "request_id", requestID(c))
			return respondInternalError(c)
		},
	})

	// Middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path} | ${locals:requestid}\n",
	}))
	app.Use(recover.New())

	app.Post("/send-message", h.SendMessage)
	app.Post("/admin/reauth", h.Reauth)
	app.Get("/health", h.Health)

	return app
}

// Server - HTTP сервер с остановкой по контексту
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
}

func NewServer(app *fiber.App, addr string, log *slog.Logger) *Server {
	return &Server{app: app, addr: addr, logger: log}
}

// Run слушает addr до отмены ctx, затем корректно останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.addr)
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	s.logger.Info("HTTP server stopped")
	return ctx.Err()
}
