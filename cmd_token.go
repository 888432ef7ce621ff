package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/util"
)

var tokenScopes []string

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Print a signed API token for subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		token, err := util.GenerateToken(args[0], tokenScopes, cfg.JWT())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", nil, "Scope to grant, repeatable (contacts:import, sms:send)")
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := util.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
