package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oneyoungman/bosuoyun/internal/model"
)

// resolveCourse finds a course by its 1-based list position or by a
// case-insensitive title fragment.
func resolveCourse(courses []model.Course, ref string) (model.Course, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(courses) {
			return model.Course{}, fmt.Errorf("course %d out of range (1-%d)", n, len(courses))
		}
		return courses[n-1], nil
	}

	query := strings.ToLower(ref)
	var matches []model.Course
	for _, course := range courses {
		if strings.Contains(strings.ToLower(course.Title), query) {
			matches = append(matches, course)
		}
	}

	switch len(matches) {
	case 0:
		return model.Course{}, fmt.Errorf("no course matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		titles := make([]string, len(matches))
		for i, match := range matches {
			titles[i] = match.Title
		}
		return model.Course{}, fmt.Errorf("%q matches several courses: %s", ref, strings.Join(titles, ", "))
	}
}

// parseSelection expands a chapter selection like "1,3-5" into unique
// ascending 1-based numbers, validated against count.
func parseSelection(spec string, count int) ([]int, error) {
	seen := make(map[int]bool)

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if before, after, found := strings.Cut(part, "-"); found {
			start, err := strconv.Atoi(strings.TrimSpace(before))
			if err != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(after))
			if err != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
			if start > end {
				start, end = end, start
			}
			for n := start; n <= end; n++ {
				if n < 1 || n > count {
					return nil, fmt.Errorf("chapter %d out of range (1-%d)", n, count)
				}
				seen[n] = true
			}
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad chapter number %q", part)
		}
		if n < 1 || n > count {
			return nil, fmt.Errorf("chapter %d out of range (1-%d)", n, count)
		}
		seen[n] = true
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("empty chapter selection %q", spec)
	}

	numbers := make([]int, 0, len(seen))
	for n := range seen {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}
