package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Generate a random enrollment challenge",
	Long: `Generate a random challenge token for offline enrollment.

Embed the token in the keygen element of the enrollment form, then
pass the same token to 'keygenca issue --challenge' when processing
the submitted SPKAC.`,
	RunE: runChallenge,
}

func runChallenge(cmd *cobra.Command, args []string) error {
	buf := make([]byte, 30)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	fmt.Println(base64.RawURLEncoding.EncodeToString(buf))
	return nil
}
