package main

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/certforge/keygen-ca/pkg/spkac"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect an SPKAC submission",
	Long: `Decode an SPKAC value and print its contents.

The self-signature is verified as part of decoding. Pass --challenge
to additionally verify the embedded challenge.

Examples:
  keygenca inspect --in request.spkac
  cat request.spkac | keygenca inspect`,
	RunE: runInspect,
}

var (
	inspectIn        string
	inspectChallenge string
)

func init() {
	flags := inspectCmd.Flags()
	flags.StringVar(&inspectIn, "in", "", "SPKAC file (default: stdin)")
	flags.StringVar(&inspectChallenge, "challenge", "", "Expected challenge value")
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := readInput(inspectIn)
	if err != nil {
		return err
	}

	s, err := spkac.New(string(data), spkac.Config{Challenge: inspectChallenge})
	if err != nil {
		return err
	}

	fmt.Printf("Challenge:  %q\n", s.Challenge())
	fmt.Printf("Algorithm:  %s\n", s.AlgorithmOID())
	fmt.Printf("Hash:       %s\n", s.Hash())
	switch pub := s.PublicKey().(type) {
	case *rsa.PublicKey:
		fmt.Printf("Public key: RSA %d bits\n", pub.N.BitLen())
	case *ecdsa.PublicKey:
		fmt.Printf("Public key: ECDSA %s\n", pub.Curve.Params().Name)
	default:
		fmt.Printf("Public key: %T\n", pub)
	}
	fmt.Println("Signature:  valid")
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
