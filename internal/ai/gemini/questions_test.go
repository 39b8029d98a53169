package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func generatedText(technical, behavioral int) string {
	var b strings.Builder
	b.WriteString("Sure, here you go.\n\nTECHNICAL:\n")
	for i := 1; i <= technical; i++ {
		fmt.Fprintf(&b, "%d. Technical question %d?\n", i, i)
	}
	b.WriteString("\nBEHAVIORAL:\n")
	for i := 1; i <= behavioral; i++ {
		fmt.Fprintf(&b, "%d) Tell me about time %d.\n", i, i)
	}
	return b.String()
}

func TestGenerateInterviewQuestions(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: generatedText(12, 5)}
	gen := NewQuestionGenerator(stub, 0, zap.NewNop())

	job := smartrecruit.JobMatch{JobID: 9, Title: "Go Developer", CompanyName: "Acme", Description: "Build APIs in Go."}
	set, err := gen.GenerateInterviewQuestions(context.Background(), job, smartrecruit.Hard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(set.Technical) != 10 || len(set.Behavioral) != 5 {
		t.Fatalf("unexpected counts: %d technical, %d behavioral", len(set.Technical), len(set.Behavioral))
	}
	if set.JobID != 9 || set.Difficulty != smartrecruit.Hard {
		t.Fatalf("unexpected set header: %+v", set)
	}
	if got := set.Technical[0]; got.Number != 1 || got.Question != "Technical question 1?" {
		t.Fatalf("unexpected first technical question: %+v", got)
	}
	if got := set.Behavioral[4]; got.Number != 5 || got.Framework != smartrecruit.DefaultFramework {
		t.Fatalf("unexpected last behavioral question: %+v", got)
	}

	for _, want := range []string{"Go Developer at Acme", "Build APIs in Go.", "Difficulty Level:\nHard"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, stub.lastPrompt)
		}
	}
	if stub.lastSystem != systemInstruction {
		t.Fatalf("unexpected system instruction: %q", stub.lastSystem)
	}
}

func TestGenerateInterviewQuestionsErrors(t *testing.T) {
	t.Parallel()

	job := smartrecruit.JobMatch{JobID: 1, Title: "SRE"}

	t.Run("missing difficulty makes no call", func(t *testing.T) {
		t.Parallel()
		stub := &stubGenerator{}
		_, err := NewQuestionGenerator(stub, 0, nil).GenerateInterviewQuestions(context.Background(), job, "")
		var validation *smartrecruit.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if stub.lastPrompt != "" {
			t.Fatalf("generator must not be called")
		}
	})

	t.Run("malformed reply", func(t *testing.T) {
		t.Parallel()
		stub := &stubGenerator{response: "1. Only one question"}
		_, err := NewQuestionGenerator(stub, 0, nil).GenerateInterviewQuestions(context.Background(), job, smartrecruit.Easy)
		if !errors.Is(err, smartrecruit.ErrMalformedQuestions) {
			t.Fatalf("expected ErrMalformedQuestions, got %v", err)
		}
	})

	t.Run("too few questions", func(t *testing.T) {
		t.Parallel()
		stub := &stubGenerator{response: generatedText(9, 5)}
		_, err := NewQuestionGenerator(stub, 0, nil).GenerateInterviewQuestions(context.Background(), job, smartrecruit.Medium)
		if !errors.Is(err, smartrecruit.ErrMalformedQuestions) {
			t.Fatalf("expected ErrMalformedQuestions, got %v", err)
		}
	})

	t.Run("generator failure passes through", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		stub := &stubGenerator{err: boom}
		_, err := NewQuestionGenerator(stub, 0, nil).GenerateInterviewQuestions(context.Background(), job, smartrecruit.Medium)
		if !errors.Is(err, boom) {
			t.Fatalf("expected generator error, got %v", err)
		}
	})
}
