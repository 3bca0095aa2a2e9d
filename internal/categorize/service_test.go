package categorize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// mockGenerator is a scripted Generator for testing the model fallback
type mockGenerator struct {
	answer string
	err    error
	calls  int
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.answer, m.err
}

func TestService_KeywordHitSkipsModel(t *testing.T) {
	gen := &mockGenerator{answer: "Transport"}
	s := NewService(New(DefaultRules()), gen, zerolog.Nop())

	got := s.Categorize(context.Background(), "SWIGGY BANGALORE")
	if got != domain.CategoryFood {
		t.Errorf("Categorize() = %q, want %q", got, domain.CategoryFood)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for a keyword hit, want 0", gen.calls)
	}
}

func TestService_ModelFallback(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
		want   domain.Category
	}{
		{
			name:   "model answer in vocabulary",
			answer: "Shopping",
			want:   domain.CategoryShopping,
		},
		{
			name:   "model answer with different case and padding",
			answer: "  transport \n",
			want:   domain.CategoryTransport,
		},
		{
			name:   "model answer outside vocabulary",
			answer: "Groceries",
			want:   domain.CategoryOthers,
		},
		{
			name:   "model returns empty string",
			answer: "",
			want:   domain.CategoryOthers,
		},
		{
			name: "model call fails",
			err:  errors.New("rate limited"),
			want: domain.CategoryOthers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{answer: tt.answer, err: tt.err}
			s := NewService(New(DefaultRules()), gen, zerolog.Nop())

			got := s.Categorize(context.Background(), "RAMESH TRADERS")
			if got != tt.want {
				t.Errorf("Categorize() = %q, want %q", got, tt.want)
			}
			if gen.calls != 1 {
				t.Errorf("generator called %d times, want 1", gen.calls)
			}
		})
	}
}

func TestService_NilGenerator(t *testing.T) {
	s := NewService(New(DefaultRules()), nil, zerolog.Nop())

	got := s.Categorize(context.Background(), "RAMESH TRADERS")
	if got != domain.CategoryOthers {
		t.Errorf("Categorize() = %q, want %q", got, domain.CategoryOthers)
	}
}

func TestCategoryPrompt(t *testing.T) {
	prompt := categoryPrompt("RAMESH TRADERS")

	if prompt == "" {
		t.Fatal("categoryPrompt() returned empty string")
	}
	for _, c := range domain.Categories() {
		if !strings.Contains(prompt, string(c)) {
			t.Errorf("categoryPrompt() missing label %q", c)
		}
	}
	if !strings.Contains(prompt, "RAMESH TRADERS") {
		t.Error("categoryPrompt() missing merchant name")
	}
}
