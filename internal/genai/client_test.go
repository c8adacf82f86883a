package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// completionServer returns an httptest server that replies to every chat
// completion with the given content string, and records the last request.
func completionServer(t *testing.T, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	last := &chatRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(last))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, "sk-test", "gpt-4o", zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("https://api.openai.com", " ", "gpt-4o", zap.NewNop())
	assert.Error(t, err)
}

func TestGeneratePresentation(t *testing.T) {
	deck := map[string]any{
		"slides": []map[string]any{
			{"type": "title", "title": "Q4 Review", "subtitle": "2026"},
			{"type": "content", "title": "Highlights", "bullets": []string{"a", "b"}},
		},
	}
	content, _ := json.Marshal(deck)
	srv, last := completionServer(t, string(content))
	c := newTestClient(t, srv)

	slides, err := c.GeneratePresentation(context.Background(), "Q4 Review", "quarterly numbers")
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, models.SlideTitle, slides[0].Type)
	assert.Equal(t, "Highlights", slides[1].Title)

	assert.Equal(t, "gpt-4o", last.Model)
	assert.Equal(t, "json_object", last.ResponseFormat.Type)
	require.Len(t, last.Messages, 2)
	assert.Contains(t, last.Messages[1].Content, "Q4 Review")
}

func TestGeneratePresentationRejectsEmptyDeck(t *testing.T) {
	srv, _ := completionServer(t, `{"slides": []}`)
	c := newTestClient(t, srv)

	_, err := c.GeneratePresentation(context.Background(), "t", "d")
	assert.Error(t, err)
}

func TestGeneratePresentationRejectsMalformedReply(t *testing.T) {
	srv, _ := completionServer(t, "sure, here is your presentation!")
	c := newTestClient(t, srv)

	_, err := c.GeneratePresentation(context.Background(), "t", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON shape")
}

func TestEditSlide(t *testing.T) {
	content := `{"affectedSlides": [{"slideIndex": 1, "slide": {"type": "quote", "quote": "q", "attribution": "a"}}]}`
	srv, last := completionServer(t, content)
	c := newTestClient(t, srv)

	p := &models.Presentation{
		Title:  "Deck",
		Slides: []models.SlideContent{{Type: models.SlideTitle}, {Type: models.SlideContentType, Title: "old"}},
	}
	affected, err := c.EditSlide(context.Background(), p, 1, "turn it into a quote")
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, 1, affected[0].SlideIndex)
	assert.Equal(t, models.SlideQuote, affected[0].Slide.Type)
	assert.Contains(t, last.Messages[1].Content, "turn it into a quote")
}

func TestGenerateSlide(t *testing.T) {
	srv, last := completionServer(t, `{"slide": {"type": "metrics", "title": "KPIs"}}`)
	c := newTestClient(t, srv)

	p := &models.Presentation{Title: "Deck", Slides: []models.SlideContent{{Type: models.SlideTitle}}}
	slide, err := c.GenerateSlide(context.Background(), p, "add a KPI slide", 1, "metrics")
	require.NoError(t, err)
	assert.Equal(t, models.SlideMetrics, slide.Type)
	assert.Contains(t, last.Messages[1].Content, `"metrics"`)
}

func TestRefinePresentation(t *testing.T) {
	content := `{"affectedSlides": [
		{"slideIndex": 0, "slide": {"type": "title", "title": "New"}},
		{"slideIndex": 2, "slide": {"type": "section", "title": "Part 2"}}
	]}`
	srv, _ := completionServer(t, content)
	c := newTestClient(t, srv)

	p := &models.Presentation{Title: "Deck", Slides: make([]models.SlideContent, 3)}
	affected, err := c.RefinePresentation(context.Background(), p, "shorten everything")
	require.NoError(t, err)
	require.Len(t, affected, 2)
	assert.Equal(t, 2, affected[1].SlideIndex)
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	_, err := c.GeneratePresentation(context.Background(), "t", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
