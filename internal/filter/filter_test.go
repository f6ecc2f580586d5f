package filter

import (
	"testing"

	"github.com/amishk599/postscout/internal/model"
)

func TestIsJobPost(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "empty content fails closed",
			content: "",
			want:    false,
		},
		{
			name:    "no gate keyword short-circuits despite indicators",
			content: "Send your resume and cv, 5 years of experience",
			want:    false,
		},
		{
			name:    "hiring with experience and apply",
			content: "We are hiring! 3+ years experience required, apply now",
			want:    true,
		},
		{
			name:    "opportunity alone is a single indicator",
			content: "Check out this opportunity for growth",
			want:    false,
		},
		{
			name:    "gate plus one indicator",
			content: "Our team is hiring, drop your resume",
			want:    false,
		},
		{
			name:    "gate plus exactly two indicators",
			content: "Hiring for a backend role, send me a message",
			want:    true,
		},
		{
			name:    "requirements and qualifications count once",
			content: "Job requirements and qualifications listed below",
			want:    false,
		},
		{
			name:    "requirements plus resume",
			content: "Job requirements below. Share your resume",
			want:    true,
		},
		{
			name:    "uppercase indicators",
			content: "VACANCY: 2 YEARS experience, RESUME to hr@acme.io",
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsJobPost(tt.content); got != tt.want {
				t.Errorf("IsJobPost(%q) = %v, want %v (indicators=%d)", tt.content, got, tt.want, Indicators(tt.content))
			}
		})
	}
}

func TestIndicators_CaseInsensitiveSingleCount(t *testing.T) {
	for _, s := range []string{"RESUME", "Resume", "resume"} {
		if got := Indicators(s); got != 1 {
			t.Errorf("Indicators(%q) = %d, want 1", s, got)
		}
	}
	if got := Indicators("resume Resume RESUME"); got != 1 {
		t.Errorf("repeated resume counted %d times, want 1", got)
	}
}

func TestIndicators_Experience(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"3+ years", 1},
		{"10 year", 1},
		{"years of experience", 1},
		{"several years", 0},
	}
	for _, tt := range tests {
		if got := Indicators(tt.content); got != tt.want {
			t.Errorf("Indicators(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestJobPostFilter_CustomThreshold(t *testing.T) {
	content := "We are hiring! 3+ years experience required, apply now"

	strict := NewJobPostFilter(3)
	if strict.IsJobPost(content) {
		t.Error("threshold 3 should reject a post with 2 indicators")
	}

	loose := NewJobPostFilter(1)
	if !loose.IsJobPost("Check out this opportunity for growth") {
		t.Error("threshold 1 should accept a gated post with 1 indicator")
	}

	if got := NewJobPostFilter(0).threshold(); got != MinIndicators {
		t.Errorf("threshold for 0 = %d, want %d", got, MinIndicators)
	}
}

func TestIsRelevant(t *testing.T) {
	if IsRelevant(nil) {
		t.Error("nil post should not be relevant")
	}
	post := &model.Post{Content: "HIRING: Data Scientist ROLE, SEND CV", URL: "u"}
	if !IsRelevant(post) {
		t.Error("expected upper-case job post to be relevant")
	}
	if IsRelevant(&model.Post{URL: "u"}) {
		t.Error("empty content should not be relevant")
	}
}

func TestLocationFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		locations []string
		content   string
		want      bool
	}{
		{"empty list passes all", nil, "anything", true},
		{"case insensitive hit", []string{"Bengaluru"}, "Hiring in BENGALURU", true},
		{"miss", []string{"pune", "noida"}, "Hiring in Berlin", false},
		{"blank entries ignored", []string{"  ", "delhi"}, "Role in New Delhi", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewLocationFilter(tt.locations)
			if got := f.Match(&model.Post{Content: tt.content}); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAll_ComposesWithAnd(t *testing.T) {
	post := &model.Post{Content: "Hiring a data role in Pune, send resume", URL: "u"}

	if !All(NewJobPostFilter(2), NewLocationFilter([]string{"pune"})).Match(post) {
		t.Error("expected both filters to match")
	}
	if All(NewJobPostFilter(2), NewLocationFilter([]string{"chennai"})).Match(post) {
		t.Error("location miss should reject")
	}
	if !All().Match(post) {
		t.Error("empty composition should match a non-nil post")
	}
	if All().Match(nil) {
		t.Error("empty composition should reject nil")
	}
}
