package genai

import (
	"encoding/json"
	"fmt"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"
)

const slideTypesDoc = `Valid slide types and their fields:
- title: title, subtitle, author, date
- section: title, subtitle
- content: title, bullets, notes
- split: title, leftContent, rightContent, imagePrompt
- quote: quote, attribution
- metricsEnhanced: title, metrics (label/value/trend/change), narrative
- multiColumn: title, columns (heading/items)
- timeline: title, events (date/title/description)
- metrics: title, metrics (label/value)`

const presentationSystemPrompt = `You are a presentation author. Reply with a single JSON object
{"slides": [...]} containing 8-12 slides. Start with a title slide and vary
the slide types to fit the content.
` + slideTypesDoc

const editSystemPrompt = `You are editing one slide of an existing presentation. Reply with a
single JSON object {"affectedSlides": [{"slideIndex": n, "slide": {...}}]}.
Only include slides you changed; keep slideIndex values from the input.
` + slideTypesDoc

const newSlideSystemPrompt = `You are authoring one new slide for an existing presentation. Reply
with a single JSON object {"slide": {...}} matching one slide type.
` + slideTypesDoc

const refineSystemPrompt = `You are refining an existing presentation. Reply with a single JSON
object {"affectedSlides": [{"slideIndex": n, "slide": {...}}]} containing
only the slides you changed, keeping slideIndex values from the input.
` + slideTypesDoc

func presentationUserPrompt(title, description string) string {
	return fmt.Sprintf("Create a presentation titled %q.\nDescription: %s", title, description)
}

func editUserPrompt(p *models.Presentation, index int, instruction string) string {
	return fmt.Sprintf("Presentation:\n%s\n\nEdit slide %d as follows: %s",
		presentationJSON(p), index, instruction)
}

func newSlideUserPrompt(p *models.Presentation, instruction string, position int, slideType string) string {
	hint := ""
	if slideType != "" {
		hint = fmt.Sprintf(" Use slide type %q.", slideType)
	}
	return fmt.Sprintf("Presentation:\n%s\n\nAuthor a new slide to insert at position %d: %s.%s",
		presentationJSON(p), position, instruction, hint)
}

func refineUserPrompt(p *models.Presentation, instruction string) string {
	return fmt.Sprintf("Presentation:\n%s\n\nRefine the presentation as follows: %s",
		presentationJSON(p), instruction)
}

// presentationJSON renders the deck as context for the model: title,
// description and the indexed slide list.
func presentationJSON(p *models.Presentation) string {
	indexed := make([]models.AffectedSlide, 0, len(p.Slides))
	for i, s := range p.Slides {
		indexed = append(indexed, models.AffectedSlide{SlideIndex: i, Slide: s})
	}
	doc := map[string]any{
		"title":       p.Title,
		"description": p.Description,
		"slides":      indexed,
	}
	b, _ := json.Marshal(doc)
	return string(b)
}
