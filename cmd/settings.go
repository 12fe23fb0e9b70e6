package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("%-16s %s\n", config.KeyDownloadPath, settings.GetDownloadPath())
		cmd.Printf("%-16s %s\n", config.KeyFFmpegPath, orUnset(settings.GetFFmpegPath()))
		cmd.Printf("%-16s %s\n", config.KeyTheme, settings.GetTheme())
		cmd.Printf("%-16s %d\n", config.KeyMaxConcurrent, settings.GetMaxConcurrent())
		cmd.Printf("\nstored in %s\n", settings.FilePath())
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting. Keys:

  download_path   directory downloads land in
  ffmpeg_path     explicit ffmpeg binary (empty uses discovery)
  theme           light or dark
  max_concurrent  parallel downloads, 1-10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		switch key {
		case config.KeyDownloadPath:
			if err := settings.SetDownloadPath(value); err != nil {
				return err
			}
		case config.KeyFFmpegPath:
			if err := settings.SetFFmpegPath(value); err != nil {
				return err
			}
		case config.KeyTheme:
			if err := settings.SetTheme(config.Theme(value)); err != nil {
				return err
			}
		case config.KeyMaxConcurrent:
			count, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("max_concurrent needs a number, got %q", value)
			}
			if err := settings.SetMaxConcurrent(count); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown setting %q", key)
		}

		cmd.Printf("%s set\n", key)
		return nil
	},
}

func orUnset(value string) string {
	if value == "" {
		return "(auto)"
	}
	return value
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
