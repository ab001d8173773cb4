package main

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/atinyakov/PassKeeper/internal/certgen"
	"github.com/spf13/cobra"
)

func newCertCmd() *cobra.Command {
	var (
		hosts    []string
		out      string
		validFor time.Duration
		caCert   string
		caKey    string
	)

	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Manage the server TLS certificate",
	}
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write server.crt and server.key for -tls-cert/-tls-key",
		Long: `Generate a server certificate and key. The certificate is self-signed
unless --ca-cert and --ca-key name a CA to sign it with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (caCert == "") != (caKey == "") {
				return fmt.Errorf("--ca-cert and --ca-key must be given together")
			}

			var (
				parent *x509.Certificate
				signer any
			)
			if caCert != "" {
				var err error
				parent, signer, err = certgen.LoadCACredentials(caCert, caKey)
				if err != nil {
					return err
				}
			}

			certPEM, keyPEM, err := certgen.GenerateServerCertificate(hosts, validFor, parent, signer)
			if err != nil {
				return err
			}
			certPath, keyPath, err := certgen.WriteKeyPair(out, certPEM, keyPEM)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", certPath, keyPath)
			return nil
		},
	}
	generate.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "DNS names or IPs the certificate is valid for")
	generate.Flags().StringVar(&out, "out", "certs", "output directory")
	generate.Flags().DurationVar(&validFor, "valid-for", 365*24*time.Hour, "certificate lifetime")
	generate.Flags().StringVar(&caCert, "ca-cert", "", "CA certificate PEM to sign with")
	generate.Flags().StringVar(&caKey, "ca-key", "", "CA private key PEM to sign with")
	cmd.AddCommand(generate, newCACmd())

	return cmd
}

func newCACmd() *cobra.Command {
	var (
		name     string
		out      string
		validFor time.Duration
	)
	ca := &cobra.Command{
		Use:   "ca",
		Short: "Write ca.crt and ca.key for signing server certificates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			certPEM, keyPEM, err := certgen.GenerateCA(name, validFor)
			if err != nil {
				return err
			}
			certPath, keyPath, err := certgen.WriteCA(out, certPEM, keyPEM)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", certPath, keyPath)
			return nil
		},
	}
	ca.Flags().StringVar(&name, "name", "PassKeeper CA", "CA common name")
	ca.Flags().StringVar(&out, "out", "certs", "output directory")
	ca.Flags().DurationVar(&validFor, "valid-for", 10*365*24*time.Hour, "CA lifetime")
	return ca
}
