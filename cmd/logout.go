package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/store"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := store.NewTokenStore(configDir)
		if err != nil {
			return err
		}
		if err := tokens.Clear(); err != nil {
			return err
		}
		cmd.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
