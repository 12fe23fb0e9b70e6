package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/model"
	"github.com/oneyoungman/bosuoyun/internal/plaso"
)

var coursesSearch string

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the course packages of the account",
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

		if coursesSearch != "" {
			courses = filterCourses(courses, coursesSearch)
		}
		if len(courses) == 0 {
			cmd.Println("no courses found")
			return nil
		}

		for i, course := range courses {
			marker := " "
			if !course.HasChapterDir() {
				// Recordings cannot be listed for this one.
				marker = "!"
			}
			cmd.Printf("%3d%s %s  (%d chapters, %g%% watched)\n",
				i+1, marker, course.Title, course.TaskNum, course.ProgressRate)
		}
		return nil
	},
}

// filterCourses keeps courses whose title contains the query, case folded.
func filterCourses(courses []model.Course, query string) []model.Course {
	query = strings.ToLower(query)
	var matched []model.Course
	for _, course := range courses {
		if strings.Contains(strings.ToLower(course.Title), query) {
			matched = append(matched, course)
		}
	}
	return matched
}

func init() {
	coursesCmd.Flags().StringVar(&coursesSearch, "search", "", "only list courses whose title contains this text")
	rootCmd.AddCommand(coursesCmd)
}
