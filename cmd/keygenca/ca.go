package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/certforge/keygen-ca/internal/ca"
)

var caCmd = &cobra.Command{
	Use:   "ca",
	Short: "CA management",
}

var caInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new CA",
	Long: `Initialize a new self-signed certificate authority.

The CA directory layout:
  <dir>/ca.crt          CA certificate
  <dir>/private/ca.key  CA private key (mode 0600)
  <dir>/serial          next serial number
  <dir>/certs/          issued certificates

Examples:
  keygenca ca init --dir ./ca --cn "Example Client CA" --org "Example Corp"

  # RSA instead of the default ECDSA P-256
  keygenca ca init --dir ./ca --cn "Example Client CA" --algorithm rsa-2048`,
	RunE: runCAInit,
}

var caShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the CA certificate",
	RunE:  runCAShow,
}

var (
	caInitDir       string
	caInitCN        string
	caInitOrg       string
	caInitCountry   string
	caInitAlgorithm string
	caInitYears     int

	caShowDir string
)

func init() {
	flags := caInitCmd.Flags()
	flags.StringVarP(&caInitDir, "dir", "d", "./ca", "CA directory")
	flags.StringVar(&caInitCN, "cn", "", "CA common name (required)")
	_ = caInitCmd.MarkFlagRequired("cn")
	flags.StringVar(&caInitOrg, "org", "", "CA organization")
	flags.StringVar(&caInitCountry, "country", "", "CA country code")
	flags.StringVar(&caInitAlgorithm, "algorithm", "ecdsa-p256", "CA key algorithm (ecdsa-p256, rsa-2048)")
	flags.IntVar(&caInitYears, "years", 10, "CA certificate validity in years")

	caShowCmd.Flags().StringVarP(&caShowDir, "dir", "d", "./ca", "CA directory")

	caCmd.AddCommand(caInitCmd)
	caCmd.AddCommand(caShowCmd)
}

func runCAInit(cmd *cobra.Command, args []string) error {
	absDir, err := filepath.Abs(caInitDir)
	if err != nil {
		return err
	}

	authority, err := ca.Initialize(absDir, ca.InitOptions{
		CommonName:   caInitCN,
		Organization: caInitOrg,
		Country:      caInitCountry,
		Algorithm:    caInitAlgorithm,
		Validity:     time.Duration(caInitYears) * 365 * 24 * time.Hour,
	})
	if err != nil {
		return err
	}

	cert := authority.Certificate()
	fmt.Printf("CA initialized at %s\n", absDir)
	fmt.Printf("  Subject:   %s\n", cert.Subject)
	fmt.Printf("  Serial:    %x\n", cert.SerialNumber)
	fmt.Printf("  Not after: %s\n", cert.NotAfter.Format(time.RFC3339))
	return nil
}

func runCAShow(cmd *cobra.Command, args []string) error {
	authority, err := ca.New(caShowDir)
	if err != nil {
		return err
	}

	certPEM, err := authority.Store().LoadCACert()
	if err != nil {
		return err
	}

	cert := authority.Certificate()
	fmt.Printf("Subject:    %s\n", cert.Subject)
	fmt.Printf("Serial:     %x\n", cert.SerialNumber)
	fmt.Printf("Not before: %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Printf("Not after:  %s\n", cert.NotAfter.Format(time.RFC3339))
	fmt.Println()
	_, err = os.Stdout.Write(certPEM)
	return err
}
