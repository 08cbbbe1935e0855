package oracle

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/config"
	"github.com/lorenzotomasdiez/who-am-i/internal/openrouter"
)

// FromConfig builds the backend selected by cfg. The returned Loader still
// has to be loaded.
func FromConfig(cfg *config.Config, log *zap.Logger) (Loader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	model := cfg.ResolvedModel()
	switch cfg.Backend {
	case config.BackendOpenRouter:
		client := openrouter.NewClient(cfg.ResolvedAPIKey(),
			openrouter.WithBaseURL(cfg.BaseURL),
			openrouter.WithTimeout(cfg.Timeout),
			openrouter.WithLogger(log))
		return NewOpenRouter(client, model, log), nil

	case config.BackendOpenAI:
		oc := openai.DefaultConfig(cfg.ResolvedAPIKey())
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		return NewOpenAI(openai.NewClientWithConfig(oc), model, log), nil

	case config.BackendOllama:
		raw := cfg.BaseURL
		if raw == "" {
			raw = config.DefaultOllamaURL
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("oracle: invalid ollama URL %q: %w", raw, err)
		}
		return NewOllama(api.NewClient(u, &http.Client{Timeout: cfg.Timeout}), model, log), nil
	}
	return nil, fmt.Errorf("oracle: unknown backend %q", cfg.Backend)
}
