package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/kineticguard/kinetic/internal/assistant"
	"github.com/kineticguard/kinetic/internal/session"
)

// fakeResponder returns a canned response and records the inputs it saw.
type fakeResponder struct {
	resp   *assistant.Response
	err    error
	inputs []string
}

func (f *fakeResponder) RespondStream(_ context.Context, _ *session.Session, input string, _ assistant.StreamCallback) (*assistant.Response, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func runChatLoop(t *testing.T, r responder, input string) string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var out bytes.Buffer
	if err := chatLoop(context.Background(), r, strings.NewReader(input), &out); err != nil {
		t.Fatalf("chatLoop() error = %v", err)
	}
	return out.String()
}

func TestChatLoop_EmptyInputPrintsHint(t *testing.T) {
	fake := &fakeResponder{resp: &assistant.Response{FinalText: "ok"}}
	out := runChatLoop(t, fake, "\n   \nq\n")

	if !strings.Contains(out, "Escribe una pregunta") {
		t.Errorf("output missing the empty-input hint:\n%s", out)
	}
	if len(fake.inputs) != 0 {
		t.Errorf("blank lines reached the assistant: %v", fake.inputs)
	}
	if !strings.Contains(out, "Hasta luego.") {
		t.Error("exit word did not end the loop")
	}
}

func TestChatLoop_AnswerAndDegradedNotice(t *testing.T) {
	fake := &fakeResponder{resp: &assistant.Response{FinalText: "respuesta completa", Degraded: true}}
	out := runChatLoop(t, fake, "¿cuánto volumen?\nexit\n")

	if len(fake.inputs) != 1 || fake.inputs[0] != "¿cuánto volumen?" {
		t.Fatalf("assistant saw %v", fake.inputs)
	}
	// Non-streamed answers are printed whole.
	if !strings.Contains(out, "respuesta completa") {
		t.Errorf("answer missing from output:\n%s", out)
	}
	if !strings.Contains(out, "aviso") {
		t.Error("degraded turn should print a notice")
	}
}

func TestChatLoop_TurnErrorContinues(t *testing.T) {
	fake := &fakeResponder{err: assistant.ErrCircuitOpen}
	out := runChatLoop(t, fake, "hola\nq\n")

	if !strings.Contains(out, "no está disponible") {
		t.Errorf("circuit-open message missing:\n%s", out)
	}
	if !strings.Contains(out, "Hasta luego.") {
		t.Error("loop should survive a failed turn and exit cleanly")
	}
}
