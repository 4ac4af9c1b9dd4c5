package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/siherrmann/ragengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messages = []model.Message{
	{Role: model.RoleSystem, Content: "context"},
	{Role: model.RoleUser, Content: "Tell me about mangoes"},
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestEmbedderEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("Embed batch in input order", func(t *testing.T) {
		var body map[string]interface{}
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), "unexpected path %s", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			w.Header().Set("Content-Type", "application/json")
			// Data intentionally out of order.
			w.Write([]byte(`{"object":"list","model":"test-embed","data":[` +
				`{"object":"embedding","index":1,"embedding":[0.5,0.25]},` +
				`{"object":"embedding","index":0,"embedding":[1,0]}],` +
				`"usage":{"prompt_tokens":2,"total_tokens":2}}`))
		})

		embedder := NewEmbedder(Config{BaseURL: server.URL + "/v1", APIKey: "test-key", Model: "test-embed"})
		embeddings, err := embedder.Embed(ctx, "first", "second")
		require.NoError(t, err)

		assert.Equal(t, "test-embed", body["model"])
		assert.Equal(t, []interface{}{"first", "second"}, body["input"])
		assert.Equal(t, [][]float32{{1, 0}, {0.5, 0.25}}, embeddings)
		assert.Equal(t, "test-embed", embedder.Model())
	})

	t.Run("Empty input does not call the server", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("Expected no request for empty input")
		})

		embeddings, err := NewEmbedder(Config{BaseURL: server.URL}).Embed(ctx)
		require.NoError(t, err)
		assert.Empty(t, embeddings)
	})
}

func TestGeneratorChat(t *testing.T) {
	ctx := context.Background()

	t.Run("Non-streamed answer", func(t *testing.T) {
		var body map[string]interface{}
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"test-chat",` +
				`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Mangoes are sweet."}}]}`))
		})

		resp, err := NewGenerator(Config{BaseURL: server.URL, Model: "test-chat"}).Chat(ctx, messages)
		require.NoError(t, err)
		assert.Equal(t, "Mangoes are sweet.", resp.Message.Content)
		assert.Equal(t, model.RoleAssistant, resp.Message.Role)

		sent, ok := body["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, sent, 2)
		assert.Equal(t, "system", sent[0].(map[string]interface{})["role"])
		assert.Equal(t, "user", sent[1].(map[string]interface{})["role"])
	})

	t.Run("Streamed answer in fragments", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, part := range []string{"Man", "goes", " are sweet."} {
				fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":0,\"model\":\"test-chat\","+
					"\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
		})

		var fragments []string
		for fragment, err := range NewGenerator(Config{BaseURL: server.URL}).ChatStream(ctx, messages) {
			require.NoError(t, err)
			fragments = append(fragments, fragment)
		}
		assert.Equal(t, []string{"Man", "goes", " are sweet."}, fragments)
	})

	t.Run("Provider errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		})

		_, err := NewGenerator(Config{BaseURL: server.URL}).Chat(ctx, messages)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load(), "Expected exactly one request")

		var streamErr error
		for _, err := range NewGenerator(Config{BaseURL: server.URL}).ChatStream(ctx, messages) {
			streamErr = err
		}
		require.Error(t, streamErr)
		assert.Equal(t, int32(2), calls.Load(), "Expected exactly one request for the stream")
	})

	t.Run("Unsupported role is rejected before sending", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("Expected no request")
		})

		_, err := NewGenerator(Config{BaseURL: server.URL}).Chat(ctx, []model.Message{{Role: "tool", Content: "x"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported message role")
	})
}
