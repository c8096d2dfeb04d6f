package answer

import (
	"strings"
	"testing"

	"regubot-client/internal/constant"
)

func TestResolveCandidateSelection(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want string
	}{
		{
			name: "longer of response and answer wins",
			raw:  map[string]interface{}{"response": "short", "answer": "a much longer answer"},
			want: "a much longer answer",
		},
		{
			name: "tie keeps response",
			raw:  map[string]interface{}{"response": "aaaa", "answer": "bbbb"},
			want: "aaaa",
		},
		{
			name: "response alone",
			raw:  map[string]interface{}{"response": "only response"},
			want: "only response",
		},
		{
			name: "answer alone",
			raw:  map[string]interface{}{"answer": "only answer"},
			want: "only answer",
		},
		{
			name: "candidates are trimmed and empties excluded",
			raw:  map[string]interface{}{"response": "   ", "answer": "  real  "},
			want: "real",
		},
		{
			name: "scan of remaining top-level fields",
			raw: map[string]interface{}{
				"success": true,
				"count":   float64(3),
				"message": "found in message",
			},
			want: "found in message",
		},
		{
			name: "envelope fields are never answer text",
			raw:  map[string]interface{}{"success": true, "error": "not an answer"},
			want: constant.ChatFallbackAnswer,
		},
		{
			name: "nothing usable yields the fixed fallback",
			raw:  map[string]interface{}{"success": true, "count": float64(1)},
			want: constant.ChatFallbackAnswer,
		},
	}

	r := NewResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.raw); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveTruncation(t *testing.T) {
	r := NewResolver(nil)

	long := strings.Repeat("x", 2500)
	got := r.Resolve(map[string]interface{}{"response": long})

	if !strings.HasSuffix(got, constant.ChatTruncatedSuffix) {
		t.Fatalf("truncated answer missing suffix")
	}
	body := strings.TrimSuffix(got, constant.ChatTruncatedSuffix)
	if len([]rune(body)) != constant.ChatAnswerMaxChars {
		t.Errorf("truncated body = %d chars, want %d", len([]rune(body)), constant.ChatAnswerMaxChars)
	}

	// Truncation happens after candidate selection: the longer candidate is
	// picked first even though it needs truncating.
	short := strings.Repeat("y", 100)
	got = r.Resolve(map[string]interface{}{"response": short, "answer": long})
	if !strings.HasPrefix(got, "x") {
		t.Errorf("truncation must not change candidate selection")
	}

	exact := strings.Repeat("z", 2000)
	if got := r.Resolve(map[string]interface{}{"response": exact}); got != exact {
		t.Errorf("answer at cap must not be truncated")
	}
}
