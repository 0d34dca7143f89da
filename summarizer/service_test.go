package summarizer

import (
	"strings"
	"testing"
	"time"
)

func TestSplitText(t *testing.T) {
	s := &service{config: Config{BatchSize: 5}}

	short := "one two three"
	chunks := s.splitText(short)
	if len(chunks) != 1 || chunks[0] != short {
		t.Errorf("short text should stay in one chunk, got %v", chunks)
	}

	long := strings.Repeat("word ", 12)
	chunks = s.splitText(long)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks of 5 words for 12 words, got %d", len(chunks))
	}
	if len(strings.Fields(chunks[2])) != 2 {
		t.Errorf("last chunk should carry the remainder, got %q", chunks[2])
	}
}

func TestNewServiceBoundsCompletionCalls(t *testing.T) {
	svc := NewService(Config{Timeout: 90 * time.Second}).(*service)
	if got := svc.client.GetClient().Timeout; got != 90*time.Second {
		t.Errorf("completion client timeout = %v, want 90s", got)
	}

	svc = NewService(Config{}).(*service)
	if got := svc.client.GetClient().Timeout; got != 2*time.Minute {
		t.Errorf("default completion client timeout = %v, want 2m", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare json", `{"summary":"x"}`, `{"summary":"x"}`},
		{"fenced json", "```json\n{\"summary\":\"x\"}\n```", `{"summary":"x"}`},
		{"plain fence", "```\n{\"summary\":\"x\"}\n```", `{"summary":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
