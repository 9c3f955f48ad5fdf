// Package command implements the intent router: a fixed, ordered table of
// bilingual (Russian/English) rules that classifies an utterance into a
// Result, and an Executor that dispatches matched commands to subsystems.
package command

import (
	"strings"
	"time"
)

// Parser classifies utterances against the rule table. It holds no mutable
// state; the same input always yields a structurally identical Result
// (modulo clock-derived fields).
type Parser struct {
	now   func() time.Time
	rules []rule
}

// NewParser returns a parser using the wall clock.
func NewParser() *Parser {
	return NewParserWithClock(time.Now)
}

// NewParserWithClock returns a parser with an injected clock, used by tests
// to pin run_at computations.
func NewParserWithClock(now func() time.Time) *Parser {
	return &Parser{now: now, rules: rules()}
}

// Parse matches text against the rule table in precedence order and returns
// the result for the first matching rule. Relative times are resolved here,
// at parse time, not at execution time. Parsing never fails: unmatched input
// yields a Result with Execute=true for the conversational fallback.
func (p *Parser) Parse(text, userID string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoMatch()
	}
	if userID == "" {
		userID = "default"
	}

	for _, r := range p.rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return r.build(p, text, userID, m)
	}
	return NoMatch()
}
