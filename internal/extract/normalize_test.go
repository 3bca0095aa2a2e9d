package extract

import "testing"

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "runs of spaces and stars",
			input: "  UBER   *TRIP   9821  ",
			want:  "UBER TRIP 9821",
		},
		{
			name:  "star glued to word",
			input: "UBER* TRIP 9821",
			want:  "UBER TRIP 9821",
		},
		{
			name:  "tabs and newlines collapse",
			input: "SWIGGY\t\nBANGALORE",
			want:  "SWIGGY BANGALORE",
		},
		{
			name:  "already clean",
			input: "AMAZON RETAIL",
			want:  "AMAZON RETAIL",
		},
		{
			name:  "only stars and spaces",
			input: " * * ",
			want:  "",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMerchant(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeMerchant(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Normalization is idempotent.
			if again := NormalizeMerchant(got); again != got {
				t.Errorf("NormalizeMerchant(%q) = %q, not idempotent", got, again)
			}
		})
	}
}
