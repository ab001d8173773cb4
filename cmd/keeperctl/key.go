package main

import (
	"fmt"

	"github.com/atinyakov/PassKeeper/internal/secure"
	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the secret sealing key",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate a base64 encoded 256-bit sealing key",
		Long: `Generate a new base64 encoded 256-bit key for sealing stored secrets.

Example:

  export SECRET_KEY="$(keeperctl key generate)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secure.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	})
	return cmd
}
