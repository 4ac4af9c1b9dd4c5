package openai

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
)

var _ provider.Generator = (*Generator)(nil)

// Generator answers chat messages with the chat completions endpoint.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a new OpenAI compatible generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	return &Generator{
		client: newClient(cfg),
		model:  cfg.Model,
	}
}

func (g *Generator) params(messages []model.Message) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case model.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		case model.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			return params, fmt.Errorf("unsupported message role: %s", m.Role)
		}
	}
	return params, nil
}

// Chat sends the messages and waits for the complete answer.
func (g *Generator) Chat(ctx context.Context, messages []model.Message) (*model.ChatResponse, error) {
	params, err := g.params(messages)
	if err != nil {
		return nil, helper.NewError("openai chat", err)
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, helper.NewError("openai chat", err)
	}
	if len(completion.Choices) == 0 {
		return nil, helper.NewError("openai chat", fmt.Errorf("no choices in response"))
	}

	return &model.ChatResponse{
		Model: completion.Model,
		Message: model.Message{
			Role:    model.RoleAssistant,
			Content: completion.Choices[0].Message.Content,
		},
		Done: true,
	}, nil
}

// ChatStream yields the content deltas of a streamed completion.
func (g *Generator) ChatStream(ctx context.Context, messages []model.Message) iter.Seq2[string, error] {
	params, err := g.params(messages)
	if err != nil {
		return provider.ErrorSeq(helper.NewError("openai chat stream", err))
	}

	return func(yield func(string, error) bool) {
		stream := g.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			content := chunk.Choices[0].Delta.Content
			if content != "" && !yield(content, nil) {
				return
			}
		}

		err := stream.Err()
		if err != nil {
			yield("", helper.NewError("openai chat stream", err))
		}
	}
}

func (g *Generator) Model() string {
	return g.model
}
