package filter

import (
	"regexp"
	"strings"

	"github.com/amishk599/postscout/internal/model"
)

// MinIndicators is the default number of corroborating signals a post must
// show, after passing the keyword gate, to count as a job post. Raising it
// trades recall for precision.
const MinIndicators = 2

// JobKeywords gate the indicator scoring: content matching none of them is
// rejected outright.
var JobKeywords = []string{
	"hiring",
	"opening",
	"opportunity",
	"position",
	"job",
	"career",
	"vacancy",
	"recruitment",
	"apply",
	"experience required",
	"skills required",
	"role",
	"responsibilities",
	"qualifications",
	"immediate joining",
	"urgent hiring",
	"job description",
}

var (
	keywordRegex     = regexp.MustCompile(`(?i)` + strings.Join(JobKeywords, "|"))
	requirementRegex = regexp.MustCompile(`(?i)requirements?|qualifications?`)
	experienceRegex  = regexp.MustCompile(`(?i)\d+\+?\s*years?|years? of experience`)
	applyRegex       = regexp.MustCompile(`(?i)apply|send|email|dm|interested|opportunity`)
)

// substringIndicators each count once when present anywhere in the
// lower-cased content.
var substringIndicators = []string{"resume", "cv", "position", "role"}

// JobPostFilter is the two-stage heuristic: a keyword gate followed by a count
// of independent job indicators. The zero value uses MinIndicators.
type JobPostFilter struct {
	minIndicators int
}

// NewJobPostFilter returns a filter requiring at least minIndicators signals.
// Values below 1 fall back to MinIndicators.
func NewJobPostFilter(minIndicators int) JobPostFilter {
	if minIndicators < 1 {
		minIndicators = MinIndicators
	}
	return JobPostFilter{minIndicators: minIndicators}
}

// IsJobPost reports whether content looks like a job post. Empty content and
// content without any gate keyword are rejected before scoring.
func (f JobPostFilter) IsJobPost(content string) bool {
	if content == "" {
		return false
	}
	if !keywordRegex.MatchString(content) {
		return false
	}
	return Indicators(content) >= f.threshold()
}

// Match reports whether post is relevant. A nil post never matches.
func (f JobPostFilter) Match(post *model.Post) bool {
	if post == nil {
		return false
	}
	return f.IsJobPost(strings.ToLower(post.Content))
}

func (f JobPostFilter) threshold() int {
	if f.minIndicators < 1 {
		return MinIndicators
	}
	return f.minIndicators
}

// IsJobPost applies the default-policy filter to content.
func IsJobPost(content string) bool {
	return JobPostFilter{}.IsJobPost(content)
}

// IsRelevant applies the default-policy filter to post.
func IsRelevant(post *model.Post) bool {
	return JobPostFilter{}.Match(post)
}

// Indicators counts the job signals present in content, ignoring case.
// Every signal weighs the same.
func Indicators(content string) int {
	n := 0
	for _, re := range []*regexp.Regexp{requirementRegex, experienceRegex, applyRegex} {
		if re.MatchString(content) {
			n++
		}
	}
	lower := strings.ToLower(content)
	for _, s := range substringIndicators {
		if strings.Contains(lower, s) {
			n++
		}
	}
	return n
}

// LocationFilter matches posts whose content mentions any configured location
// (case-insensitive substring). An empty list matches everything.
type LocationFilter struct {
	locations []string
}

// NewLocationFilter returns a filter over the given location names.
func NewLocationFilter(locations []string) *LocationFilter {
	lower := make([]string, 0, len(locations))
	for _, loc := range locations {
		if loc = strings.ToLower(strings.TrimSpace(loc)); loc != "" {
			lower = append(lower, loc)
		}
	}
	return &LocationFilter{locations: lower}
}

// Match reports whether the post names one of the locations.
func (f *LocationFilter) Match(post *model.Post) bool {
	if post == nil {
		return false
	}
	if len(f.locations) == 0 {
		return true
	}
	content := strings.ToLower(post.Content)
	for _, loc := range f.locations {
		if strings.Contains(content, loc) {
			return true
		}
	}
	return false
}

// allFilter matches only when every member matches.
type allFilter []model.PostFilter

func (a allFilter) Match(post *model.Post) bool {
	for _, f := range a {
		if !f.Match(post) {
			return false
		}
	}
	return true
}

// All composes filters with logical AND. With no filters it matches every
// non-nil post.
func All(filters ...model.PostFilter) model.PostFilter {
	if len(filters) == 0 {
		return allFilter{acceptNonNil{}}
	}
	return allFilter(filters)
}

type acceptNonNil struct{}

func (acceptNonNil) Match(post *model.Post) bool { return post != nil }
