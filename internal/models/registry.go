// Package models picks the OpenRouter model the oracle talks to.
package models

import (
	"github.com/lorenzotomasdiez/who-am-i/internal/openrouter"
)

// Registry indexes the models an OpenRouter account can reach and keeps the
// free ones (Prompt == "0" and Completion == "0") in listing order.
type Registry struct {
	all  map[string]openrouter.Model
	free []openrouter.Model
}

// NewRegistry builds a registry from a model listing. Models with nil
// Pricing are never considered free.
func NewRegistry(models []openrouter.Model) *Registry {
	r := &Registry{all: make(map[string]openrouter.Model, len(models))}
	for _, m := range models {
		r.all[m.ID] = m
		if m.Pricing == nil {
			continue
		}
		if m.Pricing.Prompt == "0" && m.Pricing.Completion == "0" {
			r.free = append(r.free, m)
		}
	}
	return r
}

// FreeModels returns all free models in the registry.
func (r *Registry) FreeModels() []openrouter.Model {
	return r.free
}

// Resolve returns the model to play with. A non-empty preferred ID must be
// listed; an empty one selects the first free model.
func (r *Registry) Resolve(preferred string) (openrouter.Model, bool) {
	if preferred != "" {
		m, ok := r.all[preferred]
		return m, ok
	}
	if len(r.free) == 0 {
		return openrouter.Model{}, false
	}
	return r.free[0], true
}

// DefaultFreeModels returns a hardcoded fallback list of known free models.
func DefaultFreeModels() []openrouter.Model {
	return []openrouter.Model{
		{ID: "qwen/qwen3-235b-a22b:free", Name: "Qwen3 235B A22B", Pricing: &openrouter.Pricing{Prompt: "0", Completion: "0"}},
		{ID: "google/gemma-3n-e2b-it:free", Name: "Gemma 3n 2B", Pricing: &openrouter.Pricing{Prompt: "0", Completion: "0"}},
		{ID: "nvidia/nemotron-nano-9b-v2:free", Name: "Nemotron Nano 9B V2", Pricing: &openrouter.Pricing{Prompt: "0", Completion: "0"}},
		{ID: "openai/gpt-oss-120b:free", Name: "GPT OSS 120B", Pricing: &openrouter.Pricing{Prompt: "0", Completion: "0"}},
	}
}
