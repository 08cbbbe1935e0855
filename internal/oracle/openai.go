package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI is an oracle backed by any OpenAI-compatible chat completions API.
type OpenAI struct {
	readiness
	client *openai.Client
	model  string
	log    *zap.Logger
}

// NewOpenAI creates an OpenAI-compatible oracle for model.
func NewOpenAI(client *openai.Client, model string, log *zap.Logger) *OpenAI {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAI{client: client, model: model, log: log}
}

// Load checks that the endpoint answers and marks the oracle ready. Endpoints
// without a model listing are accepted as long as a model is configured.
func (o *OpenAI) Load(ctx context.Context) error {
	if o.model == "" {
		return errors.New("oracle: openai backend requires a model")
	}
	list, err := o.client.ListModels(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("oracle: openai: %w", err)
		}
		o.log.Warn("model listing unavailable, trusting configured model", zap.Error(err))
	} else if !hasOpenAIModel(list, o.model) {
		return fmt.Errorf("oracle: openai model %q not listed", o.model)
	}
	o.markReady()
	o.log.Info("oracle ready", zap.String("backend", "openai"), zap.String("model", o.model))
	return nil
}

func hasOpenAIModel(list openai.ModelsList, id string) bool {
	if len(list.Models) == 0 {
		return true
	}
	for _, m := range list.Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Name implements Loader.
func (o *OpenAI) Name() string { return "openai/" + o.model }

// Complete implements Oracle.
func (o *OpenAI) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := o.check(); err != nil {
		return "", err
	}
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		msgs[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: openAITemperature(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("oracle: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// openAITemperature maps 0 to the smallest positive float32. go-openai omits
// a zero temperature from the request, which would leave the server default.
func openAITemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
