package prompt

import (
	"strings"
	"testing"

	"shortgen/internal/domain"
)

func TestFirstFrameContainsScenario(t *testing.T) {
	brief := domain.Brief{Title: "Rocket launch", Outcome: "rocket reaches orbit"}
	got := FirstFrame(brief)
	if !strings.Contains(got, "SCENARIO: Rocket launch") {
		t.Fatalf("FirstFrame() missing scenario line:\n%s", got)
	}
	if !strings.Contains(got, "NO text") {
		t.Fatal("FirstFrame() missing overlay constraints")
	}
}

func TestSecondFrameContainsOutcome(t *testing.T) {
	brief := domain.Brief{Title: "Rocket launch", Outcome: "rocket reaches orbit"}
	got := SecondFrame(brief)
	if !strings.Contains(got, "OUTCOME TO DEPICT: rocket reaches orbit") {
		t.Fatalf("SecondFrame() missing outcome line:\n%s", got)
	}
	if !strings.Contains(got, "climactic") {
		t.Fatal("SecondFrame() missing climactic framing")
	}
}

func TestVideoJoinsTitleAndOutcome(t *testing.T) {
	tests := []struct {
		name  string
		brief domain.Brief
		want  string
	}{
		{
			name:  "title and outcome",
			brief: domain.Brief{Title: "Rocket launch", Outcome: "rocket reaches orbit"},
			want:  "Rocket launch\nrocket reaches orbit",
		},
		{
			name:  "title only",
			brief: domain.Brief{Title: "Rocket launch"},
			want:  "Rocket launch",
		},
		{
			name:  "whitespace trimmed",
			brief: domain.Brief{Title: "  Rocket launch ", Outcome: " rocket reaches orbit\n"},
			want:  "Rocket launch\nrocket reaches orbit",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Video(tc.brief); got != tc.want {
				t.Fatalf("Video() = %q, want %q", got, tc.want)
			}
		})
	}
}
