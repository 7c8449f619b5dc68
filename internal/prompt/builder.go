// Package prompt builds the generation prompts for the three pipeline
// stages. Everything here is pure string templating over the input brief.
package prompt

import (
	"fmt"
	"strings"

	"shortgen/internal/domain"
)

// FirstFrame builds the prompt for the opening frame of the short. The frame
// is later animated, so it asks for a single dynamic moment rather than a
// composition with text or graphics.
func FirstFrame(brief domain.Brief) string {
	var b strings.Builder
	b.WriteString("Create a 4K cinematic frame for a viral short-form video advertisement.\n\n")
	fmt.Fprintf(&b, "SCENARIO: %s\n\n", strings.TrimSpace(brief.Title))
	b.WriteString(`ANALYZE THE SCENARIO AND CREATE THE MOST DRAMATIC VISUAL:

For SPORTS (games, championships, players):
- Mid-action athletic moment: diving catch, slam dunk, goal celebration
- Accurate team uniforms and stadium atmosphere

For POLITICS (elections, candidates, legislation):
- Dramatic podium moment, victory celebration, or tense debate scene
- Capitol building, rally crowd, or press conference setting

For FINANCE/CRYPTO (stocks, Bitcoin, markets):
- Dramatic visualization: rocket launch, explosion of coins, trading floor chaos
- Abstract energy: glowing charts, digital particles, futuristic aesthetic

For ENTERTAINMENT (awards, movies, celebrities):
- Red carpet glamour, award moment, or performance shot
- Stage lighting, audience reactions, flashbulbs

REQUIREMENTS:
1. Use any provided images as REFERENCE for faces, style, or composition
2. Vertical 9:16 aspect ratio (mobile format)
3. 4K cinematic quality - dramatic lighting, sharp details
4. NO text, NO graphics, NO watermarks, NO overlays
5. This frame will be animated into a video - make it dynamic and exciting

Create a single powerful frame that makes viewers stop scrolling.`)
	return b.String()
}

// SecondFrame builds the prompt for the closing frame: the same scene pushed
// to the climactic beat of the outcome. It is always seeded with the first
// frame's bytes so the two frames stay visually continuous.
func SecondFrame(brief domain.Brief) string {
	var b strings.Builder
	b.WriteString("Transform this frame into the climactic moment of the scene.\n\n")
	fmt.Fprintf(&b, "OUTCOME TO DEPICT: %s\n\n", strings.TrimSpace(brief.Outcome))
	b.WriteString(`REQUIREMENTS:
1. Keep the same setting, characters, lighting and visual style as the input frame
2. Advance the action to the decisive beat where the outcome becomes obvious
3. Vertical 9:16 aspect ratio, 4K cinematic quality
4. NO text, NO graphics, NO watermarks, NO overlays

The input frame is the opening of a short video and this frame is its ending.`)
	return b.String()
}

// Video builds the prompt handed to the video-generation backend alongside
// the two frames.
func Video(brief domain.Brief) string {
	title := strings.TrimSpace(brief.Title)
	outcome := strings.TrimSpace(brief.Outcome)
	if outcome == "" {
		return title
	}
	return title + "\n" + outcome
}
