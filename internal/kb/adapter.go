package kb

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timeframeRe splits stored timeframes like "2023 - 6 months" or "2023-2024"
// into a year and a duration tail.
var timeframeRe = regexp.MustCompile(`(\d{4})\s*[-–]\s*(.+)`)

// FactsFromRow converts a store project row into the immutable facts record.
func FactsFromRow(r ProjectRow) ProjectFacts {
	year := time.Now().Year()
	duration := strings.TrimSpace(r.Timeframe)
	if m := timeframeRe.FindStringSubmatch(r.Timeframe); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			year = y
		}
		duration = strings.TrimSpace(m[2])
	}
	return ProjectFacts{
		Slug:     r.Slug,
		Title:    r.Title,
		Client:   r.Client,
		Timeline: Timeline{Year: year, Duration: duration},
		Role:     r.RoleTitle,
		Summary:  r.SummaryShort,
		Problem:  r.SummaryLong,
		Skills:   append([]string(nil), r.Skills...),
		Links:    append([]Link(nil), r.Links...),
	}
}

// LongformFromSections folds section rows into the per-slug narrative record.
// Unknown section types are ignored.
func LongformFromSections(project ProjectRow, sections []SectionRow) *ProjectLongform {
	if len(sections) == 0 {
		return nil
	}
	lf := &ProjectLongform{Title: project.Title}
	for _, s := range sections {
		content := strings.TrimSpace(s.Content)
		switch strings.TrimSpace(s.SectionType) {
		case "context":
			lf.Context = content
		case "problem":
			lf.Problem = content
		case "solution":
			lf.Solution = content
		case "process":
			lf.Process = content
		case "outcome", "outcomes":
			lf.Outcomes = content
		case "reflections":
			lf.Reflections = content
		}
	}
	return lf
}
