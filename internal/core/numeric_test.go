package core

import "testing"

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "blank", input: "", want: 0},
		{name: "whitespace", input: "   ", want: 0},
		{name: "dash", input: "-", want: 0},
		{name: "dash with spaces", input: " - ", want: 0},
		{name: "plain integer", input: "1234", want: 1234},
		{name: "plain decimal", input: "12.5", want: 12.5},
		{name: "dot thousands", input: "1.234", want: 1234},
		{name: "dot thousands repeated", input: "1.234.567", want: 1234567},
		{name: "comma thousands", input: "12,500", want: 12500},
		{name: "two decimals untouched", input: "1.23", want: 1.23},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "thousands then decimal comma", input: "1.234,5", want: 1234.5},
		{name: "comma thousands then decimal point", input: "12,500.75", want: 12500.75},
		{name: "four digits after dot kept", input: "1.2345", want: 1.2345},
		{name: "negative", input: "-42", want: -42},
		{name: "currency prefix", input: "Rp 1.000", want: 1000},
		{name: "trailing unit", input: "250 ton", want: 250},
		{name: "thousands before currency symbol", input: "1.234€", want: 1234},
		{name: "thousands before space and unit", input: "1.234 ton", want: 1234},
		{name: "separator followed by letter kept", input: "1.234x", want: 1.234},
		{name: "separator followed by accented letter kept", input: "1.234é", want: 1.234},
		{name: "garbage", input: "n/a", want: 0},
		{name: "nan token is not finite", input: "NaN", want: 0},
		{name: "inf token is not finite", input: "Inf", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNumber(tt.input); got != tt.want {
				t.Errorf("ToNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToNumbers(t *testing.T) {
	got := ToNumbers([]string{"1.000", "nan", "None", "-", "2,5", ""})
	want := []float64{1000, 0, 0, 0, 2.5, 0}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToNumbers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
