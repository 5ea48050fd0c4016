package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goBlade/blade"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "captcha",
		Short: "request a captcha challenge for login --captcha-key",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := blade.New(blade.Config{
				BaseURL:      cfg.BaseURL,
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				TenantID:     cfg.TenantID,
			})
			if err != nil {
				return err
			}
			res, err := client.Captcha(c.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "key:   %s\nimage: %s\n", res.Key, res.Image)
			return nil
		},
	})
}
