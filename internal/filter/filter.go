package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/model"
)

// DefaultMinDescriptionLength is the minimum plain-text description length
// when none is configured.
const DefaultMinDescriptionLength = 100

// AcceptanceFilter rejects jobs with an empty title or a description whose
// plain text is shorter than minLength characters.
type AcceptanceFilter struct {
	minLength int
}

// NewAcceptanceFilter returns an acceptance filter. A non-positive minLength
// uses DefaultMinDescriptionLength.
func NewAcceptanceFilter(minLength int) *AcceptanceFilter {
	if minLength <= 0 {
		minLength = DefaultMinDescriptionLength
	}
	return &AcceptanceFilter{minLength: minLength}
}

// Match reports whether the job has a title and a long enough description.
func (f *AcceptanceFilter) Match(job model.Job) bool {
	if strings.TrimSpace(job.Title) == "" {
		return false
	}
	return utf8.RuneCountInString(extract.PlainText(job.Description)) >= f.minLength
}

// OnlyToday keeps jobs whose AgeDays is zero.
type OnlyToday struct{}

func (OnlyToday) Match(job model.Job) bool { return job.AgeDays == 0 }

// All matches when every filter matches.
type All []model.JobFilter

func (a All) Match(job model.Job) bool {
	for _, f := range a {
		if !f.Match(job) {
			return false
		}
	}
	return true
}

// Apply returns the jobs matched by f, in order.
func Apply(f model.JobFilter, jobs []model.Job) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}
