// Command keygenca is a certificate authority for browser keygen
// (SPKAC) enrollment.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certforge/keygen-ca/internal/audit"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var auditLogPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keygenca",
	Short: "Certificate authority for browser keygen (SPKAC) enrollment",
	Long: `keygenca manages a small certificate authority that accepts
SignedPublicKeyAndChallenge (SPKAC) submissions, as produced by the
HTML <keygen> element, and issues client certificates for them.

The SPKAC self-signature and challenge are verified before any
certificate is issued. Issuance itself always uses a strong hash,
regardless of the MD5 signature inside the SPKAC.

Examples:
  # Initialize a new CA
  keygenca ca init --dir ./ca --cn "Example Client CA" --org "Example Corp"

  # Inspect an SPKAC submission
  keygenca inspect --in request.spkac

  # Issue a certificate from an SPKAC file
  keygenca issue --ca-dir ./ca --in request.spkac --challenge secret \
      --cn "Alice" --email alice@example.com --out alice.crt

  # Run the enrollment HTTP server
  keygenca serve --ca-dir ./ca --port 8443`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if auditLogPath == "" {
			auditLogPath = os.Getenv("KEYGENCA_AUDIT_LOG")
		}
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set KEYGENCA_AUDIT_LOG env var)")

	rootCmd.AddCommand(caCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
}
