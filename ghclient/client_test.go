package ghclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNew_BaseURL(t *testing.T) {
	client, err := New(context.Background(), "token", WithBaseURL("http://127.0.0.1:9999/api"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/api/", client.BaseURL.String())
}

func TestNew_DefaultBaseURL(t *testing.T) {
	client, err := New(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/", client.BaseURL.String())
}

func TestStatusCode_NonGitHubError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, 0, StatusCode(err))
	assert.Empty(t, ResponseMessage(err))
}
