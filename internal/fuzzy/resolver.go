// Package fuzzy ranks vocabulary entries by similarity to free-text input.
package fuzzy

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// Cutoff is the minimum similarity ratio a candidate must reach.
	Cutoff = 0.4
	// MaxCandidates bounds the candidate list.
	MaxCandidates = 10
)

var (
	ErrInvalidFormat = errors.New("fuzzy: input must contain letters only")
	ErrNoMatch       = errors.New("fuzzy: no similar entry")
)

// Match is one scored vocabulary entry.
type Match struct {
	Value string
	Score float64
}

// Resolve returns up to MaxCandidates vocabulary entries whose similarity to
// raw is at least Cutoff, best first. Equal scores keep vocabulary order.
func Resolve(raw string, vocabulary []string) ([]string, error) {
	matches, err := Rank(raw, vocabulary)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Value
	}
	return out, nil
}

// Rank is Resolve with the scores kept.
func Rank(raw string, vocabulary []string) ([]Match, error) {
	word, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(split(word))

	var matches []Match
	for _, entry := range vocabulary {
		m.SetSeq1(split(entry))
		// cheap upper bounds first, the full ratio only when they pass
		if m.RealQuickRatio() < Cutoff || m.QuickRatio() < Cutoff {
			continue
		}
		if score := m.Ratio(); score >= Cutoff {
			matches = append(matches, Match{Value: entry, Score: score})
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > MaxCandidates {
		matches = matches[:MaxCandidates]
	}
	return matches, nil
}

// Exact reports the vocabulary entry equal to raw ignoring case.
func Exact(raw string, vocabulary []string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, entry := range vocabulary {
		if strings.EqualFold(entry, raw) {
			return entry, true
		}
	}
	return "", false
}

// Normalize trims raw, checks it is purely alphabetic and capitalizes it.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidFormat
	}
	for _, r := range raw {
		if !unicode.IsLetter(r) {
			return "", ErrInvalidFormat
		}
	}
	first, size := utf8.DecodeRuneInString(raw)
	return string(unicode.ToUpper(first)) + strings.ToLower(raw[size:]), nil
}

func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
