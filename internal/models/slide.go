package models

// SlideType discriminates the slide content shapes.
type SlideType string

// Supported slide types
const (
	SlideTitle           SlideType = "title"
	SlideSection         SlideType = "section"
	SlideContentType     SlideType = "content"
	SlideSplit           SlideType = "split"
	SlideQuote           SlideType = "quote"
	SlideMetricsEnhanced SlideType = "metricsEnhanced"
	SlideMultiColumn     SlideType = "multiColumn"
	SlideTimeline        SlideType = "timeline"
	SlideMetrics         SlideType = "metrics"
)

// Metric is a single key figure on a metrics or metricsEnhanced slide.
type Metric struct {
	Label  string `dynamodbav:"label" json:"label"`
	Value  string `dynamodbav:"value" json:"value"`
	Trend  string `dynamodbav:"trend,omitempty" json:"trend,omitempty"` // up | down | flat
	Change string `dynamodbav:"change,omitempty" json:"change,omitempty"`
}

// Column is one column of a multiColumn slide.
type Column struct {
	Heading string   `dynamodbav:"heading" json:"heading"`
	Items   []string `dynamodbav:"items" json:"items"`
}

// TimelineEvent is one entry on a timeline slide.
type TimelineEvent struct {
	Date        string `dynamodbav:"date" json:"date"`
	Title       string `dynamodbav:"title" json:"title"`
	Description string `dynamodbav:"description,omitempty" json:"description,omitempty"`
}

// SlideContent is the tagged union over the nine slide shapes. Type selects
// the shape; the storage and transport layers treat the rest as an opaque
// document and only the generation layer interprets field sets per type.
type SlideContent struct {
	Type SlideType `dynamodbav:"type" json:"type"`

	// Shared by most shapes
	Title    string `dynamodbav:"title,omitempty" json:"title,omitempty"`
	Subtitle string `dynamodbav:"subtitle,omitempty" json:"subtitle,omitempty"`

	// title
	Author string `dynamodbav:"author,omitempty" json:"author,omitempty"`
	Date   string `dynamodbav:"date,omitempty" json:"date,omitempty"`

	// content
	Bullets []string `dynamodbav:"bullets,omitempty" json:"bullets,omitempty"`
	Notes   string   `dynamodbav:"notes,omitempty" json:"notes,omitempty"`

	// split
	LeftContent  string `dynamodbav:"leftContent,omitempty" json:"leftContent,omitempty"`
	RightContent string `dynamodbav:"rightContent,omitempty" json:"rightContent,omitempty"`
	ImagePrompt  string `dynamodbav:"imagePrompt,omitempty" json:"imagePrompt,omitempty"`

	// quote
	Quote       string `dynamodbav:"quote,omitempty" json:"quote,omitempty"`
	Attribution string `dynamodbav:"attribution,omitempty" json:"attribution,omitempty"`

	// metrics / metricsEnhanced
	Metrics   []Metric `dynamodbav:"metrics,omitempty" json:"metrics,omitempty"`
	Narrative string   `dynamodbav:"narrative,omitempty" json:"narrative,omitempty"`

	// multiColumn
	Columns []Column `dynamodbav:"columns,omitempty" json:"columns,omitempty"`

	// timeline
	Events []TimelineEvent `dynamodbav:"events,omitempty" json:"events,omitempty"`
}

// AffectedSlide pairs a slide with its position, as returned by edit and
// refine operations.
type AffectedSlide struct {
	SlideIndex int          `json:"slideIndex"`
	Slide      SlideContent `json:"slide"`
}
