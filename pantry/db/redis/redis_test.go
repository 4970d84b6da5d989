package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectURL_BadURL(t *testing.T) {
	_, err := ConnectURL(context.Background(), "http://localhost:6379")
	assert.ErrorContains(t, err, "redis: parse url")
}

func TestConnectURL_Unreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConnectURL(ctx, "redis://127.0.0.1:1/0")
	assert.ErrorContains(t, err, "redis: ping")
}
