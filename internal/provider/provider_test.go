package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImagePrompt(t *testing.T) {
	assert.True(t, IsImagePrompt("Draw a cat on a skateboard"))
	assert.True(t, IsImagePrompt("please create an image of a sunset"))
	assert.True(t, IsImagePrompt("a PICTURE OF the Eiffel tower"))
	assert.False(t, IsImagePrompt("what is the capital of France"))
	assert.False(t, IsImagePrompt(""))
}

func TestClient_GenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Paris."}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{TextURL: srv.URL, TextAPIKey: "test-key"})
	reply, err := c.GenerateText(context.Background(), "capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", reply)
}

func TestClient_GenerateText_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{TextURL: srv.URL})
	reply, err := c.GenerateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "No response.", reply)
}

func TestClient_GenerateText_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{TextURL: srv.URL})
	_, err := c.GenerateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_GenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer img-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"url":"https://img.example.com/1.png"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{ImageURL: srv.URL, ImageAPIKey: "img-key"})
	url, err := c.GenerateImage(context.Background(), "draw a cat")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/1.png", url)
}

func TestClient_GenerateImage_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{ImageURL: srv.URL})
	_, err := c.GenerateImage(context.Background(), "draw a cat")
	require.Error(t, err)
}
