package oracle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/models"
	"github.com/lorenzotomasdiez/who-am-i/internal/openrouter"
)

// OpenRouter is an oracle backed by the OpenRouter chat completions API.
type OpenRouter struct {
	readiness
	client *openrouter.Client
	model  string
	log    *zap.Logger
}

// NewOpenRouter creates an OpenRouter oracle. An empty model selects the
// first free model at Load time.
func NewOpenRouter(client *openrouter.Client, model string, log *zap.Logger) *OpenRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenRouter{client: client, model: model, log: log}
}

// Load resolves the model against the live listing, falling back to the
// built-in free list when the listing cannot be fetched.
func (o *OpenRouter) Load(ctx context.Context) error {
	listing, err := o.client.ListModels(ctx)
	if err != nil {
		o.log.Warn("could not fetch models, using defaults", zap.Error(err))
		listing = models.DefaultFreeModels()
	}
	registry := models.NewRegistry(listing)
	m, ok := registry.Resolve(o.model)
	if !ok && o.model == "" {
		m, ok = models.NewRegistry(models.DefaultFreeModels()).Resolve("")
	}
	if !ok {
		return fmt.Errorf("oracle: openrouter model %q not available", o.model)
	}
	o.model = m.ID
	o.markReady()
	o.log.Info("oracle ready", zap.String("backend", "openrouter"), zap.String("model", o.model))
	return nil
}

// Name implements Loader.
func (o *OpenRouter) Name() string { return "openrouter/" + o.model }

// Complete implements Oracle.
func (o *OpenRouter) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := o.check(); err != nil {
		return "", err
	}
	msgs := make([]openrouter.Message, len(messages))
	for i, m := range messages {
		msgs[i] = openrouter.Message{Role: string(m.Role), Content: m.Content}
	}
	temp := opts.Temperature
	resp, err := o.client.ChatCompletion(ctx, openrouter.ChatRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: &temp,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("oracle: %w", err)
	}
	return resp.Content(), nil
}
