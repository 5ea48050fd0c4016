package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goBlade/passcrypt"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "keygen",
		Short: "generate an SM2 key pair for password encryption",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			pub, priv, err := passcrypt.GenerateKeyPair()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "GOBLADE_SM2_PUBLIC_KEY=%s\nGOBLADE_SM2_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	})
}
