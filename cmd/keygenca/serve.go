package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/certforge/keygen-ca/internal/api/server"
)

// Serve command flags
var (
	servePort         int
	serveHost         string
	serveCADir        string
	serveTLSCert      string
	serveTLSKey       string
	serveChallengeTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrollment HTTP server",
	Long: `Start the SPKAC enrollment REST API.

Endpoints:
  POST /api/v1/challenge       Issue a single-use enrollment challenge
  POST /api/v1/enroll          Submit an SPKAC, receive a certificate
  GET  /api/v1/certs/{serial}  Fetch an issued certificate
  GET  /api/v1/ca              Fetch the CA certificate

Environment variables:
  KEYGENCA_PORT      HTTP port
  KEYGENCA_CA_DIR    Path to CA directory
  KEYGENCA_TLS_CERT  TLS certificate file
  KEYGENCA_TLS_KEY   TLS private key file

Examples:
  keygenca serve --ca-dir ./ca --port 8443

  # With TLS
  keygenca serve --ca-dir ./ca --tls-cert server.crt --tls-key server.key`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.IntVar(&servePort, "port", 0, "Port to listen on (default: 8443)")
	flags.StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	flags.StringVarP(&serveCADir, "ca-dir", "d", "", "Path to CA directory (required)")
	flags.StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	flags.StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")
	flags.DurationVar(&serveChallengeTTL, "challenge-ttl", 10*time.Minute, "Lifetime of issued challenges")
}

func runServe(cmd *cobra.Command, args []string) error {
	applyServeEnvVars()

	if serveCADir == "" {
		return fmt.Errorf("--ca-dir is required")
	}
	absDir, err := filepath.Abs(serveCADir)
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Host = serveHost
	cfg.CADir = absDir
	cfg.ChallengeTTL = serveChallengeTTL
	cfg.TLSCert = serveTLSCert
	cfg.TLSKey = serveTLSKey
	if servePort != 0 {
		cfg.Port = servePort
	}

	return server.New(cfg, version).Start()
}

// applyServeEnvVars applies environment variable fallbacks for flags
// that were not set.
func applyServeEnvVars() {
	if servePort == 0 {
		if v := os.Getenv("KEYGENCA_PORT"); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				servePort = port
			}
		}
	}
	if serveCADir == "" {
		serveCADir = os.Getenv("KEYGENCA_CA_DIR")
	}
	if serveTLSCert == "" {
		serveTLSCert = os.Getenv("KEYGENCA_TLS_CERT")
	}
	if serveTLSKey == "" {
		serveTLSKey = os.Getenv("KEYGENCA_TLS_KEY")
	}
}
