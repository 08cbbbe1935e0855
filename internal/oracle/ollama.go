package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Ollama is an oracle backed by a local Ollama server.
type Ollama struct {
	readiness
	client *api.Client
	model  string
	log    *zap.Logger
}

// NewOllama creates an Ollama oracle for model.
func NewOllama(client *api.Client, model string, log *zap.Logger) *Ollama {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ollama{client: client, model: model, log: log}
}

// Load checks the server heartbeat and that the model has been pulled.
// Pulling is left to the user.
func (o *Ollama) Load(ctx context.Context) error {
	if err := o.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("oracle: ollama heartbeat: %w", err)
	}
	list, err := o.client.List(ctx)
	if err != nil {
		return fmt.Errorf("oracle: ollama list: %w", err)
	}
	found := false
	for _, m := range list.Models {
		if sameOllamaModel(m.Name, o.model) || sameOllamaModel(m.Model, o.model) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("oracle: ollama model %q not pulled (run `ollama pull %s`)", o.model, o.model)
	}
	o.markReady()
	o.log.Info("oracle ready", zap.String("backend", "ollama"), zap.String("model", o.model))
	return nil
}

func sameOllamaModel(listed, want string) bool {
	if listed == want {
		return true
	}
	return !strings.Contains(want, ":") && listed == want+":latest"
}

// Name implements Loader.
func (o *Ollama) Name() string { return "ollama/" + o.model }

// Complete implements Oracle.
func (o *Ollama) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := o.check(); err != nil {
		return "", err
	}
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}
	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var sb strings.Builder
	err := o.client.Chat(ctx, req, func(r api.ChatResponse) error {
		sb.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("oracle: ollama: %w", err)
	}
	return sb.String(), nil
}
