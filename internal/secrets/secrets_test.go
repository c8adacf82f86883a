package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	calls  int
	values map[string]string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[*params.SecretId]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestGetCachesValue(t *testing.T) {
	api := &fakeSecrets{values: map[string]string{"openai-key": "sk-test"}}
	cache := NewCache(api)

	for i := 0; i < 3; i++ {
		v, err := cache.Get(context.Background(), "openai-key")
		require.NoError(t, err)
		assert.Equal(t, "sk-test", v)
	}
	assert.Equal(t, 1, api.calls, "secret resolved at most once per process")
}

func TestGetPropagatesError(t *testing.T) {
	cache := NewCache(&fakeSecrets{values: map[string]string{}})

	_, err := cache.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestResetClearsCache(t *testing.T) {
	api := &fakeSecrets{values: map[string]string{"k": "v"}}
	cache := NewCache(api)

	_, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	cache.Reset()
	_, err = cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}
