// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Env holds the configuration values for the application.
type Env struct {
	Region string
	Table  string

	// QueueURL points at the generation queue. Empty means generation jobs
	// cannot be enqueued and new presentations stay in processing.
	QueueURL string

	// GoogleClientID activates token verification. Empty switches the API
	// into the development-mode anonymous identity.
	GoogleClientID string

	// AllowedEmails is the optional allow-list. Empty permits every
	// verified identity.
	AllowedEmails []string

	// WebsocketEndpoint is the API Gateway Management endpoint used for
	// best-effort push notifications. Empty disables them.
	WebsocketEndpoint string

	// OpenAISecretName is the Secrets Manager secret holding the API key.
	// When empty the key is read from OPENAI_API_KEY directly.
	OpenAISecretName string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
}

// MustLoad reads the environment variables and returns an Env struct.
func MustLoad() Env {
	e := Env{
		Region:            get("AWS_REGION", "eu-west-1"),
		Table:             must("PRESENTATIONS_TABLE"),
		QueueURL:          get("GENERATION_QUEUE_URL", ""),
		GoogleClientID:    get("GOOGLE_CLIENT_ID", ""),
		AllowedEmails:     splitEmails(get("ALLOWED_EMAILS", "")),
		WebsocketEndpoint: get("WEBSOCKET_ENDPOINT", ""),
		OpenAISecretName:  get("OPENAI_API_KEY_SECRET", ""),
		OpenAIAPIKey:      get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     get("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:       get("OPENAI_MODEL", "gpt-4o"),
	}
	return e
}

// AuthActive reports whether token verification is configured.
func (e Env) AuthActive() bool { return e.GoogleClientID != "" }

// splitEmails parses the comma-separated allow-list, lowercasing and
// dropping empty entries.
func splitEmails(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.ToLower(strings.TrimSpace(part)); email != "" {
			out = append(out, email)
		}
	}
	return out
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
