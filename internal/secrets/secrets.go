// Package secrets resolves named secrets with a process-lifetime cache.
package secrets

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// API is the subset of the Secrets Manager client the cache uses.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var _ API = (*secretsmanager.Client)(nil)

// Cache resolves secrets once per process. Values are never invalidated;
// a cold start picks up rotated secrets.
type Cache struct {
	api API

	mu     sync.Mutex
	values map[string]string
}

// NewCache creates a cache over the given Secrets Manager client.
func NewCache(api API) *Cache {
	return &Cache{api: api, values: map[string]string{}}
}

// Get returns the secret string for name, fetching it at most once.
func (c *Cache) Get(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.values[name]; ok {
		return v, nil
	}
	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	c.values[name] = *out.SecretString
	return *out.SecretString, nil
}

// Reset clears all cached values. Intended for tests only.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = map[string]string{}
}
