package game

import "sync/atomic"

// Token is the generation an asynchronous call was issued under.
type Token uint64

// Epoch is a monotonically increasing session generation counter. A call
// captures a Token when it is issued and checks it with Valid before applying
// its result; any reset in between makes the result stale.
type Epoch struct {
	n atomic.Uint64
}

// Bump starts a new generation and returns its token.
func (e *Epoch) Bump() Token {
	return Token(e.n.Add(1))
}

// Capture returns the current generation.
func (e *Epoch) Capture() Token {
	return Token(e.n.Load())
}

// Valid reports whether tok still names the current generation.
func (e *Epoch) Valid(tok Token) bool {
	return Token(e.n.Load()) == tok
}
