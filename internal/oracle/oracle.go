// Package oracle defines the text-completion contract the game engine
// depends on and the backends that fulfil it.
package oracle

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrUnavailable is returned by Complete when the backing model is not loaded.
var ErrUnavailable = errors.New("oracle: model not loaded")

// Role tags a message in a completion request.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged prompt message.
type Message struct {
	Role    Role
	Content string
}

// Options is the sampling configuration of a completion. Stream is always
// false for the engine; backends reject nothing but never stream.
type Options struct {
	Temperature float64
	MaxTokens   int
	Stream      bool
}

// Oracle returns one completion for a list of messages.
type Oracle interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	Ready() bool
}

// Loader is an Oracle that must be loaded before use.
type Loader interface {
	Oracle
	Load(ctx context.Context) error
	// Name identifies the backend and model, e.g. "ollama/llama3".
	Name() string
}

// System and User build messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

type readiness struct {
	ready atomic.Bool
}

func (r *readiness) Ready() bool { return r.ready.Load() }

func (r *readiness) markReady() { r.ready.Store(true) }

func (r *readiness) check() error {
	if !r.ready.Load() {
		return ErrUnavailable
	}
	return nil
}
