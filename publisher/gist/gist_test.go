package gist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/issuesync/ghclient"
)

func newTestPublisher(t *testing.T, handler http.HandlerFunc) *Publisher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := ghclient.New(context.Background(), "test-token",
		ghclient.WithBaseURL(srv.URL),
		ghclient.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return New(client)
}

func TestPublish_Success(t *testing.T) {
	var body struct {
		Description string `json:"description"`
		Files       map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	p := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/gists/abc123", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_, _ = w.Write([]byte(`{"id":"abc123","html_url":"https://gist.github.com/abc123",
			"description":"Test - 2024/03/05","updated_at":"2024-03-06T01:02:03Z"}`))
	})

	doc := p.Publish(context.Background(), "abc123", "Hello\n\n---\nOriginal post: x", "Test - 2024/03/05")

	require.NotNil(t, doc)
	assert.Equal(t, "abc123", doc.ID)
	assert.Equal(t, "https://gist.github.com/abc123", doc.URL)
	assert.Equal(t, "Test - 2024/03/05", doc.Description)
	assert.True(t, doc.UpdatedAt.Equal(time.Date(2024, 3, 6, 1, 2, 3, 0, time.UTC)))

	assert.Equal(t, "Test - 2024/03/05", body.Description)
	require.Len(t, body.Files, 1)
	assert.Equal(t, "Hello\n\n---\nOriginal post: x", body.Files[FileName].Content)
}

func TestPublish_Failure(t *testing.T) {
	p := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	assert.Nil(t, p.Publish(context.Background(), "missing", "c", "t"))
}
