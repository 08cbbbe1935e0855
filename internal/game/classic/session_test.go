package classic

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/characters"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockOracle returns canned replies, rotating through them, and records calls.
type mockOracle struct {
	mu        sync.Mutex
	notReady  bool
	responses []string
	err       error
	calls     [][]oracle.Message
}

func (m *mockOracle) Ready() bool { return !m.notReady }

func (m *mockOracle) Complete(_ context.Context, msgs []oracle.Message, _ oracle.Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msgs)
	if m.err != nil {
		return "", m.err
	}
	return m.responses[(len(m.calls)-1)%len(m.responses)], nil
}

// gatedOracle blocks every call until release is closed.
type gatedOracle struct {
	reply   string
	entered chan struct{}
	release chan struct{}
}

func newGatedOracle(reply string) *gatedOracle {
	return &gatedOracle{reply: reply, entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedOracle) Ready() bool { return true }

func (g *gatedOracle) Complete(ctx context.Context, _ []oracle.Message, _ oracle.Options) (string, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return g.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type fixedPicker struct {
	names []string
	n     int
}

func (p *fixedPicker) Draw() (string, error) {
	name := p.names[p.n%len(p.names)]
	p.n++
	return name, nil
}

type countingObserver struct {
	mu    sync.Mutex
	stale map[string]int
	wins  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{stale: make(map[string]int)}
}

func (o *countingObserver) StaleDiscarded(_ game.Mode, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale[op]++
}

func (o *countingObserver) Won(game.Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.wins++
}

func waitWin(t *testing.T, ch <-chan game.WinEvent) game.WinEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for win event")
		return game.WinEvent{}
	}
}

func TestStartRequiresReadyOracle(t *testing.T) {
	s := NewSession(&mockOracle{notReady: true}, &fixedPicker{names: []string{"Simba"}}, nil)
	err := s.Start()
	assert.ErrorIs(t, err, game.ErrNotReady)
	assert.False(t, s.Started())
	assert.Equal(t, NotStarted, s.State())
}

func TestAskBeforeStartFails(t *testing.T) {
	s := NewSession(&mockOracle{responses: []string{"<ANSWER>YES</ANSWER>"}}, &fixedPicker{names: []string{"Simba"}}, nil)
	_, err := s.AskQuestion(context.Background(), "Is it a lion?")
	assert.ErrorIs(t, err, game.ErrNotStarted)
}

func TestStartDrawsCharacterAndBumpsEpoch(t *testing.T) {
	s := NewSession(&mockOracle{responses: []string{"x"}}, &fixedPicker{names: []string{"Simba", "Elsa"}}, nil)
	require.NoError(t, s.Start())
	first := s.Epoch()
	assert.Equal(t, "Simba", s.Secret())
	assert.Equal(t, Started, s.State())

	require.NoError(t, s.Start())
	assert.Equal(t, "Elsa", s.Secret())
	assert.Equal(t, first+1, s.Epoch())
}

func TestStartWithPoolNeverRepeats(t *testing.T) {
	pool := characters.NewPool(characters.Disney(), nil, nil)
	s := NewSession(&mockOracle{responses: []string{"x"}}, pool, nil)
	seen := make(map[string]bool)
	for range pool.Size() {
		require.NoError(t, s.Start())
		assert.False(t, seen[s.Secret()], "character %q reused", s.Secret())
		seen[s.Secret()] = true
	}
}

func TestClassicScenario(t *testing.T) {
	llm := &mockOracle{responses: []string{"<REASONING>Simba is a lion</REASONING><ANSWER>NO</ANSWER>"}}
	s := NewSession(llm, &fixedPicker{names: []string{"Simba"}}, nil)
	wins, cancel := s.Wins().Subscribe()
	defer cancel()
	require.NoError(t, s.Start())

	res, err := s.AskQuestion(context.Background(), "Is it Mickey Mouse?")
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, game.AnswerNo, res.Answer)
	assert.Equal(t, StatusAnswered, res.Status)
	assert.Equal(t, "Simba is a lion", res.Reasoning)
	assert.Empty(t, wins, "no win expected for Mickey Mouse")

	_, err = s.AskQuestion(context.Background(), "Are you Simba?")
	require.NoError(t, err)
	ev := waitWin(t, wins)
	assert.Equal(t, "Are you Simba?", ev.Question)
	assert.Equal(t, game.ModeClassic, ev.Mode)
	assert.Equal(t, s.ID(), ev.SessionID)
	s.Wait()
	assert.True(t, s.Won())
	assert.Equal(t, Won, s.State())
}

func TestWinFiresBeforeOracleReplies(t *testing.T) {
	llm := newGatedOracle("<ANSWER>YES</ANSWER>")
	s := NewSession(llm, &fixedPicker{names: []string{"Simba"}}, nil)
	wins, cancel := s.Wins().Subscribe()
	defer cancel()
	require.NoError(t, s.Start())

	done := make(chan Result, 1)
	go func() {
		res, _ := s.AskQuestion(context.Background(), "are you SIMBA?")
		done <- res
	}()

	<-llm.entered
	waitWin(t, wins)
	select {
	case <-done:
		t.Fatal("answer should still be pending")
	default:
	}

	close(llm.release)
	res := <-done
	assert.Equal(t, game.AnswerYes, res.Answer)
	s.Wait()
}

func TestWonSessionKeepsAnswering(t *testing.T) {
	llm := &mockOracle{responses: []string{"<ANSWER>YES</ANSWER>"}}
	s := NewSession(llm, &fixedPicker{names: []string{"Simba"}}, nil)
	require.NoError(t, s.Start())

	_, err := s.AskQuestion(context.Background(), "Simba?")
	require.NoError(t, err)
	s.Wait()
	require.True(t, s.Won())

	res, err := s.AskQuestion(context.Background(), "Do you have a mane?")
	require.NoError(t, err)
	assert.Equal(t, game.AnswerYes, res.Answer)
	s.Wait()
}

func TestResetMidFlightDiscardsAnswer(t *testing.T) {
	llm := newGatedOracle("<ANSWER>YES</ANSWER>")
	obs := newCountingObserver()
	s := NewSession(llm, &fixedPicker{names: []string{"Simba", "Elsa"}}, nil)
	s.SetObserver(obs)
	wins, cancel := s.Wins().Subscribe()
	defer cancel()
	require.NoError(t, s.Start())

	done := make(chan Result, 1)
	go func() {
		res, _ := s.AskQuestion(context.Background(), "Is it a lion?")
		done <- res
	}()
	<-llm.entered

	require.NoError(t, s.Start())
	close(llm.release)

	res := <-done
	s.Wait()
	assert.Equal(t, StatusStale, res.Status)
	assert.Equal(t, "Elsa", s.Secret())
	assert.False(t, s.Won())
	assert.Empty(t, wins)
	assert.Equal(t, 1, obs.stale["ask_question"])
}

func TestStaleWinCheckIsDropped(t *testing.T) {
	gate := make(chan struct{})
	detector := detectorFunc(func(context.Context, string, string) bool {
		<-gate
		return true
	})
	obs := newCountingObserver()
	s := NewSession(&mockOracle{responses: []string{"<ANSWER>NO</ANSWER>"}}, &fixedPicker{names: []string{"Simba", "Elsa"}}, nil)
	s.SetDetector(detector)
	s.SetObserver(obs)
	wins, cancel := s.Wins().Subscribe()
	defer cancel()
	require.NoError(t, s.Start())

	_, err := s.AskQuestion(context.Background(), "Simba?")
	require.NoError(t, err)
	s.Reset()
	close(gate)
	s.Wait()

	assert.Empty(t, wins)
	assert.False(t, s.Won())
	assert.Equal(t, 1, obs.stale["win_check"])
	assert.Equal(t, 0, obs.wins)
}

func TestOracleErrorBecomesErrorResult(t *testing.T) {
	boom := errors.New("model crashed")
	s := NewSession(&mockOracle{err: boom}, &fixedPicker{names: []string{"Simba"}}, nil)
	require.NoError(t, s.Start())

	res, err := s.AskQuestion(context.Background(), "Is it a lion?")
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, game.AnswerNotValid, res.Answer)
	assert.ErrorIs(t, res.Err, boom)
}

func TestMalformedReplyFallsBack(t *testing.T) {
	s := NewSession(&mockOracle{responses: []string{"Hmm, yes I think so"}}, &fixedPicker{names: []string{"Simba"}}, nil)
	require.NoError(t, s.Start())

	res, err := s.AskQuestion(context.Background(), "Is it a lion?")
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, game.AnswerYes, res.Answer)
}

func TestPromptContainsCharacterThemeAndQuestion(t *testing.T) {
	llm := &mockOracle{responses: []string{"<ANSWER>NO</ANSWER>"}}
	s := NewSession(llm, &fixedPicker{names: []string{"Simba"}}, nil)
	s.SetTheme("pixar")
	require.NoError(t, s.Start())

	_, err := s.AskQuestion(context.Background(), "Can you fly?")
	require.NoError(t, err)
	s.Wait()

	require.Len(t, llm.calls, 1)
	msgs := llm.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, oracle.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `"Simba"`)
	assert.Contains(t, msgs[0].Content, `"pixar"`)
	assert.Contains(t, msgs[0].Content, "<ANSWER>")
	assert.Equal(t, oracle.RoleUser, msgs[1].Role)
	assert.Equal(t, "<QUESTION>Can you fly?</QUESTION>", msgs[1].Content)
}

func TestResetStopsPlay(t *testing.T) {
	s := NewSession(&mockOracle{responses: []string{"x"}}, &fixedPicker{names: []string{"Simba"}}, nil)
	require.NoError(t, s.Start())
	before := s.Epoch()
	s.Reset()

	assert.False(t, s.Started())
	assert.Empty(t, s.Secret())
	assert.Equal(t, before+1, s.Epoch())
	_, err := s.AskQuestion(context.Background(), "Is it a lion?")
	assert.ErrorIs(t, err, game.ErrNotStarted)
}

type detectorFunc func(ctx context.Context, secret, question string) bool

func (f detectorFunc) Detect(ctx context.Context, secret, question string) bool {
	return f(ctx, secret, question)
}

func TestSubstringDetector(t *testing.T) {
	d := SubstringDetector{}
	ctx := context.Background()
	assert.True(t, d.Detect(ctx, "Simba", "Are you Simba?"))
	assert.True(t, d.Detect(ctx, "Mickey Mouse", "is it mickey mouse"))
	assert.True(t, d.Detect(ctx, "Simba", "Are you Simba's father?"), "known false positive")
	assert.False(t, d.Detect(ctx, "Simba", "Are you a lion?"))
	assert.False(t, d.Detect(ctx, "", "anything"))
}

func TestOracleDetector(t *testing.T) {
	yes := OracleDetector{Oracle: &mockOracle{responses: []string{"<WIN> yes </WIN>"}}}
	no := OracleDetector{Oracle: &mockOracle{responses: []string{"<WIN>NO</WIN>"}}}
	broken := OracleDetector{Oracle: &mockOracle{err: errors.New("down")}}
	ctx := context.Background()

	assert.True(t, yes.Detect(ctx, "Simba", "Is it the lion king?"))
	assert.False(t, no.Detect(ctx, "Simba", "Are you Simba's father?"))
	assert.False(t, broken.Detect(ctx, "Simba", "Simba?"))
}

func TestOracleDetectorPrompt(t *testing.T) {
	llm := &mockOracle{responses: []string{"<WIN>NO</WIN>"}}
	OracleDetector{Oracle: llm}.Detect(context.Background(), "Elsa", "Do you like snow?")
	require.Len(t, llm.calls, 1)
	assert.True(t, strings.Contains(llm.calls[0][0].Content, `"Elsa"`))
	assert.Contains(t, llm.calls[0][0].Content, "<WIN>")
}
