package main

import (
	"github.com/spf13/cobra"
)

// newHashCmd prints a bcrypt hash usable as a password_hash in the config
func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := hashPassword(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
}
