// Package httpx provides helper functions for creating HTTP responses.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(b),
	}, nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, map[string]string{"error": msg})
}

// BadRequest is a 400 response with the given message.
func BadRequest(msg string) (events.APIGatewayV2HTTPResponse, error) {
	return Error(http.StatusBadRequest, msg)
}

// Unauthorized is a 401 response.
func Unauthorized() (events.APIGatewayV2HTTPResponse, error) {
	return Error(http.StatusUnauthorized, "unauthorized")
}

// Forbidden is a 403 response.
func Forbidden() (events.APIGatewayV2HTTPResponse, error) {
	return Error(http.StatusForbidden, "forbidden")
}

// NotFound is a 404 response with the given message.
func NotFound(msg string) (events.APIGatewayV2HTTPResponse, error) {
	return Error(http.StatusNotFound, msg)
}

// Internal is a 500 response with a generic message; the cause is expected
// to be logged server-side, never surfaced.
func Internal() (events.APIGatewayV2HTTPResponse, error) {
	return Error(http.StatusInternalServerError, "internal server error")
}
