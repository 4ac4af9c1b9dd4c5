package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
)

var _ provider.Generator = (*Generator)(nil)

// Generator answers chat messages with the /api/chat endpoint.
type Generator struct {
	client *client
	model  string
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

type chatResponse struct {
	Model   string        `json:"model"`
	Message model.Message `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// NewGenerator creates a new Ollama generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	return &Generator{
		client: newClient(cfg),
		model:  cfg.Model,
	}
}

// Chat sends the messages and waits for the complete answer.
func (g *Generator) Chat(ctx context.Context, messages []model.Message) (*model.ChatResponse, error) {
	resp, err := g.client.post(ctx, "/api/chat", chatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, helper.NewError("ollama chat", err)
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	err = json.NewDecoder(resp.Body).Decode(&chatResp)
	if err != nil {
		return nil, helper.NewError("ollama chat", fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != "" {
		return nil, helper.NewError("ollama chat", fmt.Errorf("%s", chatResp.Error))
	}

	return &model.ChatResponse{
		Model:   chatResp.Model,
		Message: chatResp.Message,
		Done:    chatResp.Done,
	}, nil
}

// ChatStream reads the newline delimited JSON stream of /api/chat.
// The response body is closed when the stream ends or the consumer stops.
func (g *Generator) ChatStream(ctx context.Context, messages []model.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := g.client.post(ctx, "/api/chat", chatRequest{
			Model:    g.model,
			Messages: messages,
			Stream:   true,
		})
		if err != nil {
			yield("", helper.NewError("ollama chat stream", err))
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		done := false
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var part chatResponse
			err := json.Unmarshal(line, &part)
			if err != nil {
				yield("", helper.NewError("ollama chat stream", fmt.Errorf("decode chunk: %w", err)))
				return
			}
			if part.Error != "" {
				yield("", helper.NewError("ollama chat stream", fmt.Errorf("%s", part.Error)))
				return
			}

			if part.Message.Content != "" && !yield(part.Message.Content, nil) {
				return
			}
			if part.Done {
				done = true
				break
			}
		}

		err = scanner.Err()
		if err != nil {
			yield("", helper.NewError("ollama chat stream", err))
			return
		}
		// A body ending without the done record is a cut connection, not an answer.
		if !done {
			yield("", helper.NewError("ollama chat stream", io.ErrUnexpectedEOF))
		}
	}
}

func (g *Generator) Model() string {
	return g.model
}

// Ping validates the server is reachable without running inference.
func (g *Generator) Ping(ctx context.Context) error {
	return g.client.ping(ctx)
}
