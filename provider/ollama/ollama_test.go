package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/siherrmann/ragengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestEmbedderEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("Embed batch in one request", func(t *testing.T) {
		var got embedRequest
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/embed", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			embeddings := make([][]float32, len(got.Input))
			for i := range got.Input {
				embeddings[i] = []float32{float32(i), 1}
			}
			json.NewEncoder(w).Encode(embedResponse{Model: got.Model, Embeddings: embeddings})
		})

		embedder := NewEmbedder(Config{BaseURL: server.URL + "/", Model: "nomic-embed-text:latest"})
		embeddings, err := embedder.Embed(ctx, "first", "second")
		require.NoError(t, err)

		assert.Equal(t, "nomic-embed-text:latest", got.Model)
		assert.Equal(t, []string{"first", "second"}, got.Input)
		assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, embeddings)
		assert.Equal(t, "nomic-embed-text:latest", embedder.Model())
	})

	t.Run("Empty input does not call the server", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("Expected no request for empty input")
		})

		embeddings, err := NewEmbedder(Config{BaseURL: server.URL}).Embed(ctx)
		require.NoError(t, err)
		assert.Empty(t, embeddings)
	})

	t.Run("Server error is returned with status", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"model \"missing\" not found"}`))
		})

		_, err := NewEmbedder(Config{BaseURL: server.URL, Model: "missing"}).Embed(ctx, "text")
		require.Error(t, err)

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr), "Expected a StatusError in the chain")
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("Mismatched embedding count is an error", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
		})

		_, err := NewEmbedder(Config{BaseURL: server.URL}).Embed(ctx, "a", "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "got 1 embeddings for 2 texts")
	})
}

func TestGeneratorChat(t *testing.T) {
	ctx := context.Background()
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "context"},
		{Role: model.RoleUser, Content: "Tell me about mangoes"},
	}

	t.Run("Non-streamed answer", func(t *testing.T) {
		var got chatRequest
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(chatResponse{
				Model:   got.Model,
				Message: model.Message{Role: model.RoleAssistant, Content: "Mangoes are sweet."},
				Done:    true,
			})
		})

		generator := NewGenerator(Config{BaseURL: server.URL, Model: "gemma3:4b"})
		resp, err := generator.Chat(ctx, messages)
		require.NoError(t, err)

		assert.False(t, got.Stream)
		assert.Equal(t, messages, got.Messages)
		assert.Equal(t, "Mangoes are sweet.", resp.Message.Content)
		assert.True(t, resp.Done)
	})

	t.Run("Streamed answer in fragments", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			var got chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.True(t, got.Stream)

			enc := json.NewEncoder(w)
			for _, part := range []string{"Man", "goes", " are sweet."} {
				enc.Encode(chatResponse{Message: model.Message{Role: model.RoleAssistant, Content: part}})
			}
			enc.Encode(chatResponse{Done: true})
		})

		var fragments []string
		for fragment, err := range NewGenerator(Config{BaseURL: server.URL}).ChatStream(ctx, messages) {
			require.NoError(t, err)
			fragments = append(fragments, fragment)
		}
		assert.Equal(t, []string{"Man", "goes", " are sweet."}, fragments)
	})

	t.Run("Consumer can stop the stream early", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			enc := json.NewEncoder(w)
			for i := 0; i < 10; i++ {
				enc.Encode(chatResponse{Message: model.Message{Content: "x"}})
			}
			enc.Encode(chatResponse{Done: true})
		})

		count := 0
		for _, err := range NewGenerator(Config{BaseURL: server.URL}).ChatStream(ctx, messages) {
			require.NoError(t, err)
			count++
			if count == 2 {
				break
			}
		}
		assert.Equal(t, 2, count)
	})

	t.Run("Error inside the stream ends it", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":{"role":"assistant","content":"Man"},"done":false}` + "\n"))
			w.Write([]byte(`{"error":"model crashed"}` + "\n"))
		})

		var fragments []string
		var streamErr error
		for fragment, err := range NewGenerator(Config{BaseURL: server.URL}).ChatStream(ctx, messages) {
			if err != nil {
				streamErr = err
				continue
			}
			fragments = append(fragments, fragment)
		}
		assert.Equal(t, []string{"Man"}, fragments)
		require.Error(t, streamErr)
		assert.Contains(t, streamErr.Error(), "model crashed")
	})

	t.Run("Stream cut before the done record is an error", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":{"content":"The answer is"},"done":false}` + "\n"))
		})

		var fragments []string
		var streamErr error
		for fragment, err := range NewGenerator(Config{BaseURL: server.URL}).ChatStream(ctx, messages) {
			if err != nil {
				streamErr = err
				continue
			}
			fragments = append(fragments, fragment)
		}
		assert.Equal(t, []string{"The answer is"}, fragments)
		require.Error(t, streamErr)
		assert.True(t, errors.Is(streamErr, io.ErrUnexpectedEOF), "Expected truncation to match io.ErrUnexpectedEOF")
	})

	t.Run("Unreachable server is yielded as error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewGenerator(Config{BaseURL: url}).Chat(ctx, messages)
		require.Error(t, err)

		var streamErr error
		for _, err := range NewGenerator(Config{BaseURL: url}).ChatStream(ctx, messages) {
			streamErr = err
		}
		require.Error(t, streamErr)
		assert.True(t, strings.Contains(streamErr.Error(), "send request"))
	})
}

func TestPing(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, NewEmbedder(Config{BaseURL: server.URL}).Ping(context.Background()))
	assert.NoError(t, NewGenerator(Config{BaseURL: server.URL}).Ping(context.Background()))
}
