package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/certforge/keygen-ca/internal/ca"
	"github.com/certforge/keygen-ca/internal/profile"
	"github.com/certforge/keygen-ca/pkg/spkac"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a certificate from an SPKAC submission",
	Long: `Verify an SPKAC submission and issue a client certificate.

The SPKAC self-signature is always verified. When --challenge is
given, the embedded challenge must match it exactly.

Use 'keygenca profile list' to see available enrollment profiles.

Examples:
  # Issue with challenge verification
  keygenca issue --ca-dir ./ca --in request.spkac --challenge secret \
      --cn "Alice" --email alice@example.com --out alice.crt

  # S/MIME profile, custom validity
  keygenca issue --ca-dir ./ca --in request.spkac \
      --profile email-protection --days 180 --email alice@example.com`,
	RunE: runIssue,
}

var (
	issueCADir     string
	issueIn        string
	issueChallenge string
	issueProfile   string
	issueDays      int
	issueOut       string

	issueCN           string
	issueEmail        string
	issueOrg          string
	issueOrgUnit      string
	issueCountry      string
	issueLocality     string
	issueProvince     string
	issueSerialNumber string
)

func init() {
	flags := issueCmd.Flags()
	flags.StringVarP(&issueCADir, "ca-dir", "d", "./ca", "CA directory")
	flags.StringVar(&issueIn, "in", "", "SPKAC file (default: stdin)")
	flags.StringVar(&issueChallenge, "challenge", "", "Expected challenge value")
	flags.StringVarP(&issueProfile, "profile", "P", "client-auth", "Enrollment profile name or file")
	flags.IntVar(&issueDays, "days", 0, "Validity in days (default: profile validity)")
	flags.StringVarP(&issueOut, "out", "o", "", "Output certificate file (default: stdout)")

	flags.StringVar(&issueCN, "cn", "", "Subject common name")
	flags.StringVar(&issueEmail, "email", "", "Subject email address")
	flags.StringVar(&issueOrg, "org", "", "Subject organization")
	flags.StringVar(&issueOrgUnit, "ou", "", "Subject organizational unit")
	flags.StringVar(&issueCountry, "country", "", "Subject country code")
	flags.StringVar(&issueLocality, "locality", "", "Subject locality")
	flags.StringVar(&issueProvince, "province", "", "Subject state or province")
	flags.StringVar(&issueSerialNumber, "serial-number", "", "Subject serial number attribute")
}

func runIssue(cmd *cobra.Command, args []string) error {
	data, err := readInput(issueIn)
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(issueCADir)
	if err != nil {
		return err
	}
	authority, err := ca.New(absDir)
	if err != nil {
		return err
	}

	p, err := profile.Load(issueProfile)
	if err != nil {
		return err
	}

	cert, err := authority.Enroll(cmd.Context(), ca.EnrollRequest{
		SPKAC:     string(data),
		Challenge: issueChallenge,
		Profile:   p,
		Validity:  time.Duration(issueDays) * 24 * time.Hour,
		Subject: spkac.Subject{
			CommonName:         issueCN,
			Email:              issueEmail,
			Organization:       issueOrg,
			OrganizationalUnit: issueOrgUnit,
			Country:            issueCountry,
			Locality:           issueLocality,
			Province:           issueProvince,
			SerialNumber:       issueSerialNumber,
		},
	})
	if err != nil {
		return err
	}

	certPEM := spkac.CertificatePEM(cert)
	if issueOut == "" {
		_, err = os.Stdout.Write(certPEM)
		return err
	}
	if err := os.WriteFile(issueOut, certPEM, 0644); err != nil {
		return err
	}
	fmt.Printf("Certificate written to %s (serial %x)\n", issueOut, cert.SerialNumber)
	return nil
}
