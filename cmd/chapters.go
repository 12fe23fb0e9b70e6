package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/plaso"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <course>",
	Short: "List the chapters of a course",
	Long: `List the chapters of a course. The course is referenced by its position
in the "courses" listing or by part of its title.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := requireSession()
		if err != nil {
			return err
		}

		client := plaso.NewClient(session.AccessToken, appLogger)
		courses, err := client.ListCourses(cmd.Context())
		if err != nil {
			return withLoginHint(err)
		}

		course, err := resolveCourse(courses, args[0])
		if err != nil {
			return err
		}

		chapters, err := client.ListChapters(cmd.Context(), course.OriginID, course.XFile.DirID)
		if err != nil {
			if errors.Is(err, plaso.ErrNoChapterDir) {
				return fmt.Errorf("%s has no recording directory", course.Title)
			}
			return withLoginHint(err)
		}
		if len(chapters) == 0 {
			cmd.Printf("%s has no chapters\n", course.Title)
			return nil
		}

		cmd.Println(course.Title)
		withoutRecording := 0
		for i, chapter := range chapters {
			marker := " "
			if !chapter.HasRecording() {
				marker = "!"
				withoutRecording++
			}
			cmd.Printf("%3d%s %s\n", i+1, marker, chapter.Name)
		}
		if withoutRecording > 0 {
			cmd.Printf("\n! %d chapters have no recording and cannot be downloaded\n", withoutRecording)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chaptersCmd)
}
