package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/certforge/keygen-ca/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Enrollment profile management",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List builtin enrollment profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an enrollment profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	names, err := profile.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		p, err := profile.Load(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %s\n", p.Name, p.Description)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := profile.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Name:        %s\n", p.Name)
	fmt.Printf("Description: %s\n", p.Description)
	fmt.Printf("Validity:    %s\n", formatValidity(p.Validity))
	fmt.Printf("Email SAN:   %t\n", p.EmailSAN)
	if len(p.Subject) > 0 {
		fmt.Println("Subject defaults:")
		for _, k := range []string{"C", "ST", "L", "O", "OU", "CN", "SerialNumber", "Email"} {
			if v, ok := p.Subject[k]; ok {
				fmt.Printf("  %-13s%s\n", k+":", v)
			}
		}
	}
	return nil
}

func formatValidity(d time.Duration) string {
	if days := d / (24 * time.Hour); days*24*time.Hour == d {
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
