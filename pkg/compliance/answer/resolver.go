// Package answer selects the single best displayable answer text from a
// chat response whose answer may be populated in any of several fields.
package answer

import (
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"regubot-client/internal/constant"
)

// Strategy extracts a candidate answer from a raw chat payload. Strategies
// are applied in order until one yields a non-empty string.
type Strategy func(raw map[string]interface{}) (string, bool)

// Resolver applies an ordered list of extraction strategies
type Resolver struct {
	strategies []Strategy
	logger     *log.Logger
}

func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{
		strategies: []Strategy{
			preferLongerOf("response", "answer"),
			anyTopLevelString("response", "answer"),
		},
		logger: logger,
	}
}

// Resolve picks the answer text for a successful chat response and applies
// the display cap. It always returns something displayable; when no usable
// field exists a fixed fallback notice is returned instead of an error.
func (r *Resolver) Resolve(raw map[string]interface{}) string {
	for _, strategy := range r.strategies {
		if text, ok := strategy(raw); ok {
			return truncate(text)
		}
	}
	if r.logger != nil {
		r.logger.Printf("[ANSWER] no usable field in chat payload, using fallback")
	}
	return constant.ChatFallbackAnswer
}

// preferLongerOf collects the primary and secondary fields (trimmed, empty
// excluded). With both present the longer wins; a tie keeps the primary.
// The backend populates either field inconsistently, and longer is assumed
// more complete.
func preferLongerOf(primary, secondary string) Strategy {
	return func(raw map[string]interface{}) (string, bool) {
		first := trimmedString(raw[primary])
		second := trimmedString(raw[secondary])
		switch {
		case first != "" && second != "":
			if utf8.RuneCountInString(second) > utf8.RuneCountInString(first) {
				return second, true
			}
			return first, true
		case first != "":
			return first, true
		case second != "":
			return second, true
		default:
			return "", false
		}
	}
}

// anyTopLevelString scans the remaining top-level fields in enumeration
// order and takes the first non-empty string value. Go maps have no stable
// iteration order, so keys are sorted to keep the scan deterministic.
func anyTopLevelString(exclude ...string) Strategy {
	excluded := make(map[string]struct{}, len(exclude)+2)
	for _, key := range exclude {
		excluded[key] = struct{}{}
	}
	// Envelope fields never carry answer text.
	excluded["success"] = struct{}{}
	excluded["error"] = struct{}{}

	return func(raw map[string]interface{}) (string, bool) {
		keys := make([]string, 0, len(raw))
		for key := range raw {
			if _, skip := excluded[key]; skip {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if text := trimmedString(raw[key]); text != "" {
				return text, true
			}
		}
		return "", false
	}
}

func trimmedString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// truncate caps the selected answer at ChatAnswerMaxChars characters, not
// bytes, so a multi-byte rune never gets split. Happens after candidate
// selection, never before.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= constant.ChatAnswerMaxChars {
		return text
	}
	return string(runes[:constant.ChatAnswerMaxChars]) + constant.ChatTruncatedSuffix
}
