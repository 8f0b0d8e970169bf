package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintledger/internal/platform/config"
)

func TestNew_EmptyURLIsAConfigError(t *testing.T) {
	client, err := New(config.RedisConfig{URL: ""})

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestNew_MalformedURL(t *testing.T) {
	client, err := New(config.RedisConfig{URL: "not-a-redis-url"})

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "parse redis URL")
}
