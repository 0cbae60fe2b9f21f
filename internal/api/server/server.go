package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/certforge/keygen-ca/internal/api/router"
	"github.com/certforge/keygen-ca/internal/ca"
	"github.com/certforge/keygen-ca/internal/challenge"
)

// Server is the enrollment HTTP server.
type Server struct {
	cfg     *Config
	version string
}

// New creates a new Server.
func New(cfg *Config, version string) *Server {
	return &Server{cfg: cfg, version: version}
}

// Start loads the CA, starts the HTTP server and blocks until
// shutdown.
func (s *Server) Start() error {
	authority, err := ca.New(s.cfg.CADir)
	if err != nil {
		return err
	}

	handler := router.New(&router.Config{
		Version:      s.version,
		CA:           authority,
		Challenges:   challenge.NewStore(s.cfg.ChallengeTTL),
		ChallengeTTL: s.cfg.ChallengeTTL,
	})

	srv := &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.printStartupInfo(authority)

	errChan := make(chan error, 1)
	go func() {
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			errChan <- srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- srv.ListenAndServe()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		log.Println("Server stopped gracefully")
	}

	return nil
}

// printStartupInfo prints server startup information.
func (s *Server) printStartupInfo(authority *ca.CA) {
	fmt.Println()
	fmt.Println("Keygen CA Enrollment Server")
	fmt.Println("===========================")
	fmt.Printf("  Version:  %s\n", s.version)
	fmt.Printf("  Address:  http://%s\n", s.cfg.Address())
	if s.cfg.TLSCert != "" {
		fmt.Println("  TLS:      enabled")
	}
	fmt.Printf("  CA:       %s\n", authority.Certificate().Subject)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health                - Health check")
	fmt.Println("  GET  /ready                 - Readiness check")
	fmt.Println("  POST /api/v1/challenge      - Issue enrollment challenge")
	fmt.Println("  POST /api/v1/enroll         - Submit SPKAC, receive certificate")
	fmt.Println("  GET  /api/v1/certs/{serial} - Fetch issued certificate")
	fmt.Println("  GET  /api/v1/ca             - Fetch CA certificate")
	fmt.Println()
	fmt.Println("Use Ctrl+C to stop")
	fmt.Println()
}
