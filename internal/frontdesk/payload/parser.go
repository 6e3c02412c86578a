// Package payload recovers a member id from a scanned token.
//
// Tokens are meant to carry a JSON identity record, but in practice they
// arrive mangled by intermediate systems. Recovery runs an ordered list of
// strategies and stops at the first one that yields a positive integer.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparsable means no strategy could find a member id in the token.
var ErrUnparsable = errors.New("payload: no member id recoverable")

// Strategy names, in default evaluation order.
const (
	StrategyStructured  = "structured"
	StrategyFieldRegex  = "field_regex"
	StrategyShortNumber = "short_number"
	StrategyRawFallback = "raw_fallback"
	StrategyBareNumber  = "bare_number"
)

// Strategy is one step of the recovery cascade. Extract receives the
// cleaned token and the original one and reports a positive id, if any.
type Strategy struct {
	Name    string
	Extract func(cleaned, raw string) (int64, bool)
}

// Result is a recovered member id plus the strategy that produced it.
type Result struct {
	MemberID int64
	Strategy string
}

// DefaultStrategies returns the recovery cascade in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyStructured, Extract: func(cleaned, _ string) (int64, bool) { return structured(cleaned) }},
		{Name: StrategyFieldRegex, Extract: func(cleaned, _ string) (int64, bool) { return fieldRegex(cleaned) }},
		{Name: StrategyShortNumber, Extract: func(cleaned, _ string) (int64, bool) { return shortNumber(cleaned) }},
		{Name: StrategyRawFallback, Extract: func(_, raw string) (int64, bool) { return rawFallback(raw) }},
		{Name: StrategyBareNumber, Extract: func(_, raw string) (int64, bool) { return positive(strings.TrimSpace(raw)) }},
	}
}

// Parser runs a strategy list against raw tokens. The zero value is not
// usable; construct with NewParser.
type Parser struct {
	strategies []Strategy
}

// NewParser returns a parser over the given strategies, or over
// DefaultStrategies when none are passed.
func NewParser(strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Parser{strategies: strategies}
}

// Strategies returns a copy of the parser's cascade.
func (p *Parser) Strategies() []Strategy {
	return append([]Strategy(nil), p.strategies...)
}

// Parse returns the first positive member id any strategy recovers. A
// token whose id field holds zero or a negative number is rejected before
// any strategy runs; the digits after the sign are not an id.
func (p *Parser) Parse(raw string) (Result, error) {
	if strings.TrimSpace(raw) == "" {
		return Result{}, ErrUnparsable
	}
	cleaned := Clean(raw)
	if rejectedIDField(cleaned) {
		return Result{}, ErrUnparsable
	}
	for _, s := range p.strategies {
		if id, ok := s.Extract(cleaned, raw); ok && id > 0 {
			return Result{MemberID: id, Strategy: s.Name}, nil
		}
	}
	return Result{}, ErrUnparsable
}

// Field names tried against a decoded record, most specific first.
var idFields = []string{"id", "ID", "memberId", "memberid", "member_id", "ιδ", "ΙΔ", "μεμβερΙδ"}

func structured(cleaned string) (int64, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()

	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return 0, false
	}
	for _, f := range idFields {
		v, ok := rec[f]
		if !ok {
			continue
		}
		if id, ok := intValue(v); ok {
			return id, true
		}
	}
	return 0, false
}

func intValue(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if id, ok := positive(x.String()); ok {
			return id, true
		}
		f, err := x.Float64()
		if err != nil || f != math.Trunc(f) || f <= 0 || f > math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case string:
		return positive(strings.TrimSpace(x))
	}
	return 0, false
}

const separator = `\s*"?\s*[:=¨΅：꞉˸։]\s*"?\s*`

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\pL\pN_])"?` + regexp.QuoteMeta(name) + separator + `(-?\s*\d+)`)
}

// Canonical names before transliterated ones; id before memberId.
var fieldPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(idFields))
	for _, f := range idFields {
		out = append(out, fieldPattern(f))
	}
	return out
}()

// rejectedIDField reports whether the highest-priority id field present in
// s carries a value that is not a positive integer.
func rejectedIDField(s string) bool {
	for _, re := range fieldPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		_, ok := positive(squash(m[1]))
		return !ok
	}
	return false
}

func fieldRegex(s string) (int64, bool) {
	for _, re := range fieldPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if id, ok := positive(squash(m[1])); ok {
			return id, true
		}
	}
	return 0, false
}

// Member ids are small; phone numbers (10 digits) and millisecond
// timestamps (13 digits) never match.
// A run preceded by '-' is a negative number or part of a date, never an id.
var shortRun = regexp.MustCompile(`(?:^|[^\w-])(\d{1,3})\b`)

func shortNumber(s string) (int64, bool) {
	m := shortRun.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return positive(m[1])
}

var anyRun = regexp.MustCompile(`(?:^|[^\d-])(\d+)`)

func rawFallback(raw string) (int64, bool) {
	if id, ok := fieldRegex(raw); ok {
		return id, true
	}
	if id, ok := shortNumber(raw); ok {
		return id, true
	}
	m := anyRun.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	return positive(m[1])
}

// squash drops the whitespace a field match may carry between sign and digits.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func positive(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
