package extract

import (
	"context"
	"testing"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// mockClassifier is a keyword-free classifier for testing extraction in
// isolation
type mockClassifier struct {
	categories map[string]domain.Category
}

func (m *mockClassifier) Categorize(ctx context.Context, merchant string) domain.Category {
	if c, ok := m.categories[merchant]; ok {
		return c
	}
	return domain.CategoryOthers
}

func testExtractor() *Extractor {
	return NewExtractor(DefaultRegistry(), &mockClassifier{
		categories: map[string]domain.Category{
			"SWIGGY BANGALORE": domain.CategoryFood,
			"UBER TRIP 9821":   domain.CategoryTransport,
			"AMAZON":           domain.CategoryShopping,
		},
	})
}

func TestExtractor_Extract(t *testing.T) {
	e := testExtractor()
	ctx := context.Background()

	tests := []struct {
		name         string
		message      string
		sender       string
		wantMatch    bool
		wantAmount   float64
		wantMerchant string
		wantCategory domain.Category
	}{
		{
			name:         "hdfc debit with trailing date",
			message:      "Rs.450.00 debited at SWIGGY BANGALORE on 12-05-24",
			sender:       "HDFC-Bank",
			wantMatch:    true,
			wantAmount:   450.00,
			wantMerchant: "SWIGGY BANGALORE",
			wantCategory: domain.CategoryFood,
		},
		{
			name:         "axis spent with star in merchant",
			message:      "INR 120 spent at UBER* TRIP 9821",
			sender:       "AXIS-BANK",
			wantMatch:    true,
			wantAmount:   120,
			wantMerchant: "UBER TRIP 9821",
			wantCategory: domain.CategoryTransport,
		},
		{
			name:         "unknown sender falls back to generic pattern",
			message:      "INR 250 spent at AMAZON",
			sender:       "VK-SOMEAPP",
			wantMatch:    true,
			wantAmount:   250,
			wantMerchant: "AMAZON",
			wantCategory: domain.CategoryShopping,
		},
		{
			name:         "empty sender uses only the fallback",
			message:      "Rs. 99 paid to LOCAL STORE",
			sender:       "",
			wantMatch:    true,
			wantAmount:   99,
			wantMerchant: "LOCAL STORE",
			wantCategory: domain.CategoryOthers,
		},
		{
			name:         "comma thousands separator",
			message:      "Rs.1,250.50 debited at BIG BAZAAR on 01-02-24",
			sender:       "HDFC-Bank",
			wantMatch:    true,
			wantAmount:   1250.50,
			wantMerchant: "BIG BAZAAR",
			wantCategory: domain.CategoryOthers,
		},
		{
			name:      "otp message does not match",
			message:   "Your OTP for HDFC NetBanking is 482913. Do not share it.",
			sender:    "HDFC-Bank",
			wantMatch: false,
		},
		{
			name:      "promotional message does not match",
			message:   "Get 10% cashback on your next recharge!",
			sender:    "AXIS-BANK",
			wantMatch: false,
		},
		{
			name:      "empty message",
			message:   "",
			sender:    "HDFC-Bank",
			wantMatch: false,
		},
		{
			name:      "whitespace only message",
			message:   "   \n\t ",
			sender:    "HDFC-Bank",
			wantMatch: false,
		},
		{
			name:      "zero amount is rejected",
			message:   "Rs.0 debited at SOME SHOP on 01-01-24",
			sender:    "HDFC-Bank",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(ctx, tt.message, tt.sender)
			if ok != tt.wantMatch {
				t.Fatalf("Extract() match = %v, want %v", ok, tt.wantMatch)
			}
			if !tt.wantMatch {
				return
			}
			if got.Amount != tt.wantAmount {
				t.Errorf("Extract() amount = %v, want %v", got.Amount, tt.wantAmount)
			}
			if got.Merchant != tt.wantMerchant {
				t.Errorf("Extract() merchant = %q, want %q", got.Merchant, tt.wantMerchant)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Extract() category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Type != domain.TypeExpense {
				t.Errorf("Extract() type = %q, want %q", got.Type, domain.TypeExpense)
			}
			if got.Source != "sms" {
				t.Errorf("Extract() source = %q, want %q", got.Source, "sms")
			}
		})
	}
}

func TestExtractor_ExtractDescription(t *testing.T) {
	e := testExtractor()

	got, ok := e.Extract(context.Background(), "Rs.450.00 debited at SWIGGY BANGALORE on 12-05-24", "HDFC-Bank")
	if !ok {
		t.Fatal("Extract() did not match")
	}
	if want := "Payment to SWIGGY BANGALORE"; got.Description != want {
		t.Errorf("Extract() description = %q, want %q", got.Description, want)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"450.00", 450.00, false},
		{"1,250.50", 1250.50, false},
		{"120", 120, false},
		{"0", 0, true},
		{"0.00", 0, true},
		{",", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
