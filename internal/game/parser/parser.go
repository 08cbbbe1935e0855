// Package parser extracts structured decisions from free-text oracle replies.
//
// Replies are expected to follow a tagged grammar, <TAG> content </TAG>, but
// the oracle does not always comply, so every field also has a lexical
// fallback and a sentinel value. Parse never fails.
package parser

import (
	"regexp"
	"strings"
	"sync"
)

const (
	Yes      = "YES"
	No       = "NO"
	NotValid = "NOT_VALID"
)

// Field describes one expected field of a reply.
type Field struct {
	// Tag is the tag name, matched case-insensitively.
	Tag string
	// Allowed is the closed vocabulary, upper-case. Empty means free text.
	Allowed []string
	// Fallback is returned when nothing recognizable is found.
	Fallback string
}

var (
	AnswerField      = Field{Tag: "ANSWER", Allowed: []string{Yes, No, NotValid}, Fallback: NotValid}
	ShouldGuessField = Field{Tag: "SHOULD_GUESS", Allowed: []string{Yes, No}, Fallback: No}
	WinField         = Field{Tag: "WIN", Allowed: []string{Yes, No}, Fallback: No}
	QuestionField    = Field{Tag: "QUESTION"}
	GuessField       = Field{Tag: "GUESS"}
)

// Result is the outcome of parsing one field.
type Result struct {
	Value     string
	Reasoning string
	// Tagged is true when Value came from the tag rather than a fallback.
	Tagged bool
}

var (
	tagCache   sync.Map // upper-case tag name -> *regexp.Regexp
	normalizer = strings.NewReplacer(" ", "_", "-", "_")
)

func tagPattern(name string) *regexp.Regexp {
	key := strings.ToUpper(name)
	if re, ok := tagCache.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	q := regexp.QuoteMeta(key)
	re := regexp.MustCompile(`(?is)<` + q + `>\s*(.*?)\s*</` + q + `>`)
	tagCache.Store(key, re)
	return re
}

// Tag returns the trimmed content of the first <name>...</name> in reply.
func Tag(reply, name string) (string, bool) {
	m := tagPattern(name).FindStringSubmatch(reply)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Tags returns the trimmed content of every <name>...</name> in reply, in order.
func Tags(reply, name string) []string {
	ms := tagPattern(name).FindAllStringSubmatch(reply, -1)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Parse extracts f from reply.
func Parse(reply string, f Field) Result {
	res := Result{Value: f.Fallback}
	if r, ok := Tag(reply, "REASONING"); ok {
		res.Reasoning = r
	}

	// First usable occurrence wins; echoed format lines are skipped.
	for _, content := range Tags(reply, f.Tag) {
		v, ok := content, content != ""
		if len(f.Allowed) > 0 {
			v, ok = match(content, f.Allowed)
		}
		if ok {
			res.Value = v
			res.Tagged = true
			return res
		}
	}

	if isYesNo(f.Allowed) {
		res.Value = classify(reply, f.Fallback)
	}
	return res
}

// Classify applies the lexical yes/no heuristic to text.
func Classify(text, fallback string) string {
	return classify(text, fallback)
}

func classify(text, fallback string) string {
	lower := strings.ToLower(text)
	hasYes := strings.Contains(lower, "yes")
	hasNo := strings.Contains(lower, "no")
	switch {
	case hasYes && !hasNo:
		return Yes
	case hasNo && !hasYes:
		return No
	default:
		return fallback
	}
}

func match(content string, allowed []string) (string, bool) {
	norm := normalizer.Replace(strings.ToUpper(strings.TrimSpace(content)))
	for _, a := range allowed {
		if norm == a {
			return a, true
		}
	}
	return "", false
}

func isYesNo(allowed []string) bool {
	var yes, no bool
	for _, a := range allowed {
		switch a {
		case Yes:
			yes = true
		case No:
			no = true
		}
	}
	return yes && no
}
