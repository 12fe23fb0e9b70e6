package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/platform"
	"github.com/oneyoungman/bosuoyun/internal/store"
)

var historyOpen int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show downloaded recordings, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := store.NewHistoryStore(configDir)
		if err != nil {
			return err
		}
		entries, err := ledger.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			cmd.Println("no downloads yet")
			return nil
		}

		if historyOpen > 0 {
			if historyOpen > len(entries) {
				return fmt.Errorf("entry %d out of range (1-%d)", historyOpen, len(entries))
			}
			entry := entries[historyOpen-1]
			cmd.Printf("opening folder of %s\n", entry.Title)
			return platform.OpenContainingFolder(entry.Path)
		}

		for i, entry := range entries {
			cmd.Printf("%3d  %s  %-8s %s\n", i+1, entry.Date, entry.Size, entry.Title)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyOpen, "open", 0, "open the folder of the given entry in the file manager")
	rootCmd.AddCommand(historyCmd)
}
