package graph

import "fmt"

// Preset is a ready-made processor configuration offered by the palette.
type Preset struct {
	ID                string
	Label             string
	Description       string
	Category          string
	SystemInstruction string
}

const (
	textBase = "Answer in the same language as the input unless asked otherwise. Return only the result, without preamble."
	htmlBase = "Return a single self-contained HTML document inside an ```html code block. Use inline CSS only."
)

// Presets is the built-in preset library, grouped by category.
var Presets = []Preset{
	{
		ID:                "polish",
		Label:             "Polish",
		Description:       "Improve tone, grammar and flow",
		Category:          "productivity",
		SystemInstruction: "Rewrite the input so it reads fluently and correctly while keeping its meaning and voice.\n\n" + textBase,
	},
	{
		ID:                "summarize",
		Label:             "Summarize",
		Description:       "Extract the key points of a long text",
		Category:          "productivity",
		SystemInstruction: "Summarize the input as a short list of its key points.\n\n" + textBase,
	},
	{
		ID:                "translate",
		Label:             "Translate",
		Description:       "Translate between Chinese and English",
		Category:          "productivity",
		SystemInstruction: "If the input is Chinese translate it to English, otherwise translate it to Chinese.\n\n" + textBase,
	},
	{
		ID:                "card",
		Label:             "Social card",
		Description:       "Turn text into a shareable card",
		Category:          "visual",
		SystemInstruction: "Design a social media card that presents the input's main message.\n\n" + htmlBase,
	},
	{
		ID:                "poster",
		Label:             "Poster",
		Description:       "Lay the content out as a poster",
		Category:          "visual",
		SystemInstruction: "Design a poster that presents the input with a strong headline and clear hierarchy.\n\n" + htmlBase,
	},
	{
		ID:                "card-cover",
		Label:             "Cover",
		Description:       "Design a cover image layout",
		Category:          "visual",
		SystemInstruction: "Design an article cover for the input with a title and subtitle.\n\n" + htmlBase,
	},
	{
		ID:                "info-density",
		Label:             "Infographic",
		Description:       "Condense content into an infographic",
		Category:          "visual",
		SystemInstruction: "Condense the input into a dense infographic with sections, figures and short labels.\n\n" + htmlBase,
	},
}

// LookupPreset returns the preset with the given id.
func LookupPreset(id string) (Preset, error) {
	for _, p := range Presets {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset: %s", id)
}

// NewProcessorFromPreset builds an idle processor node configured by p.
func NewProcessorFromPreset(id NodeID, p Preset) *Node {
	n := NewNode(id, &ProcessorData{SystemInstruction: p.SystemInstruction})
	n.Label = p.Label
	return n
}
