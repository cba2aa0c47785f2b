package types

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMoneyFormatting(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		currency string
		major    string
		display  string
	}{
		{"Whole", Money(10000), "egp", "100.00", "E£100.00"},
		{"Half", Money(9950), "usd", "99.50", "$99.50"},
		{"Cents", Money(5), "eur", "0.05", "€0.05"},
		{"Negative", Money(-250), "gbp", "-2.50", "£-2.50"},
		{"Unknown currency", Money(2000), "sar", "20.00", "SAR 20.00"},
		{"No currency", Money(2000), "", "20.00", "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.major {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.major)
			}
			if got := tt.money.Format(tt.currency); got != tt.display {
				t.Errorf("Format: got %s, want %s", got, tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return Money(100).Add(Money(200)) }, Money(300)},
		{"Subtract", func() Money { return Money(500).Subtract(Money(200)) }, Money(300)},
		{"Max keeps larger", func() Money { return Money(-100).Max(Zero) }, Zero},
		{"Max other", func() Money { return Money(700).Max(Money(300)) }, Money(700)},
		{"Sum", func() Money { return Sum(Money(100), Money(250), Money(50)) }, Money(400)},
		{"Sum empty", func() Money { return Sum() }, Zero},
		{"FromMajor rounds", func() Money { return FromMajor(0.1 + 0.2) }, Money(30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); got != tt.expected {
				t.Errorf("got %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input   string
		want    Money
		wantErr bool
	}{
		{"100", Money(10000), false},
		{" 99.5 ", Money(9950), false},
		{"", Zero, false},
		{"abc", Zero, true},
		{"NaN", Zero, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}{Money(10000), Money(9950)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":100,"b":99.5}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var decoded struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
		D Money `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":100,"b":"12.75","c":null,"d":0.1}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.A != 10000 || decoded.B != 1275 || decoded.C != 0 || decoded.D != 10 {
		t.Errorf("unexpected decode: %+v", decoded)
	}

	var bad Money
	if err := json.Unmarshal([]byte(`"ten"`), &bad); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestFromMajorStaysInRange(t *testing.T) {
	maxMoney := Money(MaxMajor * 100)

	tests := []struct {
		name  string
		input float64
		want  Money
	}{
		{"Regular", 99.5, 9950},
		{"Huge", 1e300, maxMoney},
		{"HugeNegative", -1e300, -maxMoney},
		{"PositiveInf", math.Inf(1), maxMoney},
		{"NaN", math.NaN(), Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromMajor(tt.input); got != tt.want {
				t.Errorf("FromMajor(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}

	var decoded struct {
		Price Money `json:"price"`
	}
	if err := json.Unmarshal([]byte(`{"price":1e300}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Price != maxMoney {
		t.Errorf("huge price decoded as %d", decoded.Price)
	}
}
