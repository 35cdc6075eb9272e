package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func TestHistory_AddTurn(t *testing.T) {
	h := NewHistory()
	h.AddTurn("¿cómo durmió el atleta 1?", "Durmió 7.5 horas de media.")

	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != ai.RoleUser {
		t.Errorf("first message role = %v, want user", msgs[0].Role)
	}
	if msgs[1].Role != ai.RoleModel {
		t.Errorf("second message role = %v, want model", msgs[1].Role)
	}
}

func TestHistory_AddMessage_IgnoresNil(t *testing.T) {
	h := NewHistory()
	h.AddMessage(nil)
	if h.Count() != 0 {
		t.Errorf("Count() = %d after nil add, want 0", h.Count())
	}
}

func TestHistory_MessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.AddTurn("pregunta", "respuesta")

	msgs := h.Messages()
	msgs[0] = nil
	if h.Messages()[0] == nil {
		t.Error("mutating the returned slice changed internal state")
	}
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.AddTurn("a", "b")
	h.Clear()
	if h.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", h.Count())
	}
}

func TestHistory_TrimTo(t *testing.T) {
	tests := []struct {
		name  string
		turns int
		trim  int
		want  int
	}{
		{name: "no trim needed", turns: 2, trim: 10, want: 4},
		{name: "trim to two turns", turns: 5, trim: 4, want: 4},
		{name: "odd rounds down", turns: 5, trim: 3, want: 2},
		{name: "trim to zero", turns: 3, trim: 0, want: 0},
		{name: "negative treated as zero", turns: 1, trim: -1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory()
			for i := 0; i < tt.turns; i++ {
				h.AddTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
			}
			h.TrimTo(tt.trim)
			if h.Count() != tt.want {
				t.Errorf("Count() = %d, want %d", h.Count(), tt.want)
			}
		})
	}
}

func TestHistory_TrimTo_KeepsNewest(t *testing.T) {
	h := NewHistory()
	h.AddTurn("old question", "old answer")
	h.AddTurn("new question", "new answer")
	h.TrimTo(2)

	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if got := msgs[0].Content[0].Text; got != "new question" {
		t.Errorf("kept message = %q, want the newest turn", got)
	}
}

func TestHistory_ConcurrentAccess(t *testing.T) {
	h := NewHistory()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			h.AddTurn(fmt.Sprintf("q%d", n), fmt.Sprintf("a%d", n))
		}(i)
		go func() {
			defer wg.Done()
			_ = h.Messages()
			_ = h.Count()
		}()
	}
	wg.Wait()
	if h.Count() != 20 {
		t.Errorf("Count() = %d, want 20", h.Count())
	}
}

func TestNew_SessionIdentity(t *testing.T) {
	a, b := New(), New()
	if a.ID == b.ID {
		t.Error("two sessions share an ID")
	}
	if a.History == nil || a.History.Count() != 0 {
		t.Error("new session should start with an empty history")
	}
	if a.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}
