package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImages_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer pc_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dall-e-3", req.Model)
		assert.Equal(t, 1, req.N)
		assert.Equal(t, "1024x1024", req.Size)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1700000000,"data":[{"url":"data:image/png;base64,AAA","revised_prompt":"a cat"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pc_test")
	resp, err := client.GenerateImages(context.Background(), &ImageRequest{
		Model:          "dall-e-3",
		Prompt:         "a cat",
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: FormatURL,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), resp.Created)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].HasURL())
	assert.Equal(t, "data:image/png;base64,AAA", *resp.Data[0].URL)
	assert.Equal(t, "a cat", *resp.Data[0].RevisedPrompt)
	assert.NotEmpty(t, resp.Raw)
}

func TestGenerateImages_OmitsOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "n")
		assert.NotContains(t, raw, "size")

		_, _ = w.Write([]byte(`{"created":1700000000,"data":[{"b64_json":"QUFB"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pc_test")
	resp, err := client.GenerateImages(context.Background(), &ImageRequest{
		Model:          "gemini-3-pro-image-preview",
		Prompt:         "a cat",
		ResponseFormat: FormatB64JSON,
	})

	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].HasB64JSON())
	assert.False(t, resp.Data[0].HasURL())
}

func TestGenerateImages_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"prompt is required","type":"invalid_request_error","code":"empty_prompt"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pc_test")
	_, err := client.GenerateImages(context.Background(), &ImageRequest{Model: "dall-e-3", Prompt: ""})

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "prompt is required", apiErr.Message)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Contains(t, err.Error(), "prompt is required")
}

func TestGenerateImages_APIError_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pc_test")
	_, err := client.GenerateImages(context.Background(), &ImageRequest{Model: "dall-e-3", Prompt: "a cat"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestGenerateImages_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pc_test")
	_, err := client.GenerateImages(context.Background(), &ImageRequest{Model: "dall-e-3", Prompt: "a cat"})

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, []byte("not json at all"), decodeErr.Body)
}

func TestGenerateImages_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "pc_test", WithTimeout(50*time.Millisecond))
	_, err := client.GenerateImages(context.Background(), &ImageRequest{Model: "dall-e-3", Prompt: "a cat"})

	assert.Error(t, err)
}

func TestGenerateImages_TrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"x"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "pc_test")
	_, err := client.GenerateImages(context.Background(), &ImageRequest{Model: "dall-e-3", Prompt: "a cat"})
	require.NoError(t, err)
}
