package main

import (
	"fmt"

	"github.com/atinyakov/PassKeeper/internal/secure"
	"github.com/spf13/cobra"
)

func newHashCmd() *cobra.Command {
	var verify string
	cmd := &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the Argon2id hash of a login password",
		Long: `Print the Argon2id hash of a login password, or with --verify check a
password against an existing hash.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher := secure.NewHasher(secure.DefaultHashParams)
			if verify != "" {
				ok, err := hasher.Verify(args[0], verify)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("password does not match")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}

			encoded, err := hasher.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
	cmd.Flags().StringVar(&verify, "verify", "", "existing hash to check the password against")
	return cmd
}
