package authz

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

func TestBearerFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"no headers", nil, ""},
		{"bearer prefix", map[string]string{"Authorization": "Bearer abc123"}, "abc123"},
		{"lowercase header and prefix", map[string]string{"authorization": "bearer abc123"}, "abc123"},
		{"raw token", map[string]string{"Authorization": "abc123"}, "abc123"},
		{"empty value", map[string]string{"Authorization": "  "}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := events.APIGatewayV2HTTPRequest{Headers: tc.headers}
			assert.Equal(t, tc.want, BearerFromRequest(req))
		})
	}
}

func TestCanModify(t *testing.T) {
	assert.True(t, CanModify(false, "anyone@x.com", "owner@x.com"), "auth inactive allows all")
	assert.True(t, CanModify(true, "owner@x.com", "owner@x.com"))
	assert.True(t, CanModify(true, "Owner@X.com", "owner@x.com"), "email match is case-insensitive")
	assert.False(t, CanModify(true, "b@x.com", "owner@x.com"))
}
