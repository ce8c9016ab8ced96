// Package http serves stored file bytes over plain HTTP, keyed by name under
// the public URL prefix.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/logging"
	"github.com/dmitrijs2005/dbfiles/internal/server/services"
)

const contextKeyRequestID = "_dbfiles_request_id"

// FileOpener is the part of services.Storage the endpoint needs.
type FileOpener interface {
	Open(ctx context.Context, name string) (*services.File, error)
}

type Server struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

// RoutePrefix returns the path part of a URL prefix, always ending in "/".
// "https://cdn.example/media" serves under "/media/".
func RoutePrefix(urlPrefix string) (string, error) {
	u, err := url.Parse(urlPrefix)
	if err != nil {
		return "", fmt.Errorf("parse URL prefix: %w", err)
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p, nil
}

// NewServer builds the fiber app serving GET and HEAD <prefix>*.
func NewServer(address, urlPrefix string, storage FileOpener, l logging.Logger) (*Server, error) {
	if storage == nil {
		return nil, errors.New("http server: storage is required")
	}
	prefix, err := RoutePrefix(urlPrefix)
	if err != nil {
		return nil, err
	}

	s := &Server{address: address, logger: l.With("module", "http_server")}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		StrictRouting: true,
	})
	app.Use(recover.New())
	app.Use(s.requestContextMiddleware)
	app.Add([]string{fiber.MethodGet, fiber.MethodHead}, prefix+"*", s.serveFile(storage))
	s.app = app

	return s, nil
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) requestContextMiddleware(c fiber.Ctx) error {
	reqID := c.Get(fiber.HeaderXRequestID)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	c.Locals(contextKeyRequestID, reqID)
	c.Set(fiber.HeaderXRequestID, reqID)

	start := time.Now()
	err := c.Next()
	s.logger.Info(c.Context(), "request",
		"request_id", reqID,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// RequestID returns the identifier assigned by the middleware.
func RequestID(c fiber.Ctx) string {
	if value, ok := c.Locals(contextKeyRequestID).(string); ok {
		return value
	}
	return ""
}

func (s *Server) serveFile(storage FileOpener) fiber.Handler {
	return func(c fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_name"})
		}

		f, err := storage.Open(c.Context(), name)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		case errors.Is(err, common.ErrInvalidName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_name"})
		case err != nil:
			s.logger.Error(c.Context(), "open failed", "name", name, "request_id", RequestID(c), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal"})
		}
		defer f.Close()

		etag := strconv.Quote(f.ContentHash)
		c.Set(fiber.HeaderETag, etag)
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			return c.SendStatus(fiber.StatusNotModified)
		}

		if ext := path.Ext(name); ext != "" {
			c.Type(ext[1:])
		} else {
			c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		}

		content := make([]byte, f.Size)
		if _, err := f.ReadAt(content, 0); err != nil && f.Size > 0 {
			return err
		}
		return c.Send(content)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
	return s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
}
