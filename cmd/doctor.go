package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/media"
	"github.com/oneyoungman/bosuoyun/internal/plaso"
	"github.com/oneyoungman/bosuoyun/internal/platform"
	"github.com/oneyoungman/bosuoyun/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check everything downloads depend on",
	RunE: func(cmd *cobra.Command, args []string) error {
		problems := 0

		fetcher := media.NewFetcher(settings.GetFFmpegPath(), appLogger)
		if fetcher.Resolved() {
			version, err := fetcher.Version(cmd.Context())
			if err != nil {
				cmd.Printf("fail  ffmpeg: %s found but not runnable: %v\n", fetcher.Path(), err)
				problems++
			} else {
				cmd.Printf("ok    ffmpeg: %s (%s)\n", fetcher.Path(), version)
			}
		} else {
			cmd.Printf("fail  ffmpeg: not found, install it or set ffmpeg_path\n")
			problems++
		}

		probe := filepath.Join(configDir, ".write-probe")
		if err := os.WriteFile(probe, nil, 0o644); err != nil {
			cmd.Printf("fail  config dir: %s not writable: %v\n", configDir, err)
			problems++
		} else {
			os.Remove(probe)
			cmd.Printf("ok    config dir: %s\n", configDir)
		}

		downloadPath := settings.GetDownloadPath()
		if free, err := platform.DiskFreeBytes(downloadPath); err != nil {
			cmd.Printf("fail  download dir: cannot measure %s: %v\n", downloadPath, err)
			problems++
		} else {
			cmd.Printf("ok    download dir: %s (%.1fGB free)\n", downloadPath, float64(free)/1024/1024/1024)
		}

		tokens, err := store.NewTokenStore(configDir)
		if err != nil {
			return err
		}
		session, err := tokens.Load()
		switch {
		case errors.Is(err, store.ErrNoSession):
			cmd.Printf("--    session: not logged in\n")
		case err != nil:
			cmd.Printf("fail  session: %v\n", err)
			problems++
		default:
			client := plaso.NewClient(session.AccessToken, appLogger)
			if _, err := client.Validate(cmd.Context()); err != nil {
				if errors.Is(err, plaso.ErrTokenRejected) {
					cmd.Printf("fail  session: token rejected, log in again\n")
					problems++
				} else {
					cmd.Printf("--    session: platform unreachable: %v\n", err)
				}
			} else {
				cmd.Printf("ok    session: token accepted\n")
			}
		}

		if problems > 0 {
			return fmt.Errorf("%d problems found", problems)
		}
		cmd.Println("\nall good")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
