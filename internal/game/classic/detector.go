package classic

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/game/parser"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

// WinDetector decides whether a player question wins the game.
type WinDetector interface {
	Detect(ctx context.Context, secret, question string) bool
}

// SubstringDetector wins when the question mentions the secret character's
// name, ignoring case. It also fires on questions that mention the name
// without guessing it.
type SubstringDetector struct{}

// Detect implements WinDetector.
func (SubstringDetector) Detect(_ context.Context, secret, question string) bool {
	if strings.TrimSpace(secret) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(question), strings.ToLower(secret))
}

// OracleDetector asks the oracle to judge whether the question is a correct
// guess. Oracle failures count as no win.
type OracleDetector struct {
	Oracle oracle.Oracle
	Log    *zap.Logger
}

// Detect implements WinDetector.
func (d OracleDetector) Detect(ctx context.Context, secret, question string) bool {
	reply, err := d.Oracle.Complete(ctx, judgeMessages(secret, question), judgeOptions)
	if err != nil {
		if d.Log != nil {
			d.Log.Warn("win judge failed", zap.Error(err))
		}
		return false
	}
	return parser.Parse(reply, parser.WinField).Value == parser.Yes
}
