package cmd

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/plaso"
	"github.com/oneyoungman/bosuoyun/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Sign in with a Plaso access token",
	Long: `Sign in with an access token from the Plaso web client.

Open the web client, sign in, and copy the access token from the browser's
developer tools (the login response body works as-is). Pass the token as an
argument or paste it when prompted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var input string
		if len(args) == 1 {
			input = args[0]
		} else {
			cmd.Println("Paste the access token (or the JSON containing it):")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				input = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return err
			}
		}

		token, err := plaso.ExtractToken(input)
		if err != nil {
			return err
		}

		client := plaso.NewClient(token, appLogger)
		profile, err := client.Validate(cmd.Context())
		if err != nil {
			return err
		}

		tokens, err := store.NewTokenStore(configDir)
		if err != nil {
			return err
		}
		session := &store.Session{AccessToken: token, UserInfo: *profile}
		if err := tokens.Save(session); err != nil {
			return err
		}

		name := profile.Name
		if name == "" {
			name = "用户"
		}
		if profile.MyOrg.Name != "" {
			cmd.Printf("Welcome, %s (%s)\n", name, profile.MyOrg.Name)
		} else {
			cmd.Printf("Welcome, %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
