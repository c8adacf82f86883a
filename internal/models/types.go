// Package models defines the data models used in the application.
package models

// PresentationStatus represents the lifecycle state of a presentation.
type PresentationStatus string

// Possible values for PresentationStatus
const (
	StatusProcessing PresentationStatus = "processing"
	StatusCompleted  PresentationStatus = "completed"
	StatusFailed     PresentationStatus = "failed"
)

// LogoKind selects how the presentation logo is rendered.
type LogoKind string

// Possible values for LogoKind
const (
	LogoNone  LogoKind = "none"
	LogoText  LogoKind = "text"
	LogoImage LogoKind = "image"
)

// Theme holds the visual configuration of a presentation.
type Theme struct {
	LogoKind        LogoKind `dynamodbav:"logoKind" json:"logoKind"`
	LogoText        string   `dynamodbav:"logoText,omitempty" json:"logoText,omitempty"`
	LogoImage       string   `dynamodbav:"logoImage,omitempty" json:"logoImage,omitempty"`
	ColorTheme      string   `dynamodbav:"colorTheme" json:"colorTheme"`
	BackgroundVideo string   `dynamodbav:"backgroundVideo,omitempty" json:"backgroundVideo,omitempty"`
}

// PresentationMetadata represents the metadata record of a presentation.
type PresentationMetadata struct {
	// DynamoDB keys
	PK     string `dynamodbav:"PK" json:"-"`     // PRESENTATION#<id>
	SK     string `dynamodbav:"SK" json:"-"`     // METADATA
	GSI1PK string `dynamodbav:"GSI1PK" json:"-"` // USER#<userId>
	GSI1SK string `dynamodbav:"GSI1SK" json:"-"` // PRESENTATION#<id>

	ID           string             `dynamodbav:"id" json:"id"`
	Title        string             `dynamodbav:"title" json:"title"`
	Description  string             `dynamodbav:"description,omitempty" json:"description,omitempty"`
	UserID       string             `dynamodbav:"userId" json:"userId"`
	Status       PresentationStatus `dynamodbav:"status" json:"status"`
	Theme        *Theme             `dynamodbav:"theme,omitempty" json:"theme,omitempty"`
	ErrorMessage string             `dynamodbav:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    int64              `dynamodbav:"createdAt" json:"createdAt"` // epoch ms
	UpdatedAt    int64              `dynamodbav:"updatedAt" json:"updatedAt"` // epoch ms
}

// SlideRecord represents one stored slide of a presentation.
type SlideRecord struct {
	PK string `dynamodbav:"PK" json:"-"` // PRESENTATION#<id>
	SK string `dynamodbav:"SK" json:"-"` // SLIDE#<index, zero-padded to 3>

	SlideIndex int          `dynamodbav:"slideIndex" json:"slideIndex"`
	Slide      SlideContent `dynamodbav:"slide" json:"slide"`
	UpdatedAt  int64        `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Presentation is the assembled read model returned to clients.
type Presentation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	UserID      string             `json:"userId"`
	Status      PresentationStatus `json:"status"`
	Theme       *Theme             `json:"theme,omitempty"`
	CreatedAt   int64              `json:"createdAt"`
	UpdatedAt   int64              `json:"updatedAt"`
	Slides      []SlideContent     `json:"slides"`
}

// Identity represents the verified caller identity.
type Identity struct {
	Email string
	Name  string
}
