// Command keeperctl administers a PassKeeper deployment: schema
// migrations, secret key and TLS certificate generation, and offline
// password hashing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "keeperctl",
		Short:         "Administer a PassKeeper deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newKeyCmd(), newHashCmd(), newCertCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
