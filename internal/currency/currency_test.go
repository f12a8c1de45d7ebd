package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

var tolerance = decimal.RequireFromString("0.0001")

func closeTo(got, want decimal.Decimal) bool {
	return got.Sub(want).Abs().LessThanOrEqual(tolerance)
}

func TestToReference(t *testing.T) {
	tests := []struct {
		code   Code
		amount string
		want   string
	}{
		{EUR, "100", "109"},
		{GBP, "100", "124"},
		{JPY, "10000", "67"},
		{CAD, "100", "74"},
		{USD, "100", "100"},
	}
	for _, tt := range tests {
		got, err := ToReference(tt.code, decimal.RequireFromString(tt.amount))
		if err != nil {
			t.Fatalf("%s: %v", tt.code, err)
		}
		if !closeTo(got, decimal.RequireFromString(tt.want)) {
			t.Fatalf("%s: ToReference(%s)=%s want %s", tt.code, tt.amount, got, tt.want)
		}
	}
}

func TestFromReference(t *testing.T) {
	tests := []struct {
		code   Code
		amount string
		want   string
	}{
		{EUR, "109", "100"},
		{GBP, "124", "100"},
		{JPY, "67", "10000"},
		{CAD, "74", "100"},
		{USD, "100", "100"},
	}
	for _, tt := range tests {
		got, err := FromReference(tt.code, decimal.RequireFromString(tt.amount))
		if err != nil {
			t.Fatalf("%s: %v", tt.code, err)
		}
		if !closeTo(got, decimal.RequireFromString(tt.want)) {
			t.Fatalf("%s: FromReference(%s)=%s want %s", tt.code, tt.amount, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range Supported() {
		for _, s := range []string{"0", "0.01", "100", "12345.67"} {
			x := decimal.RequireFromString(s)
			usd, err := ToReference(c, x)
			if err != nil {
				t.Fatal(err)
			}
			back, err := FromReference(c, usd)
			if err != nil {
				t.Fatal(err)
			}
			if !closeTo(back, x) {
				t.Fatalf("round trip %s %s: got %s", c, s, back)
			}
		}
	}
}

func TestNegativeAmountRejected(t *testing.T) {
	neg := decimal.NewFromInt(-100)
	if _, err := ToReference(EUR, neg); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("ToReference: want ErrInvalidArgument, got %v", err)
	}
	if _, err := FromReference(EUR, neg); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("FromReference: want ErrInvalidArgument, got %v", err)
	}
}

func TestZeroConvertsToZero(t *testing.T) {
	for _, c := range Supported() {
		to, _ := ToReference(c, decimal.Zero)
		from, _ := FromReference(c, decimal.Zero)
		if !to.IsZero() || !from.IsZero() {
			t.Fatalf("%s: zero converted to %s / %s", c, to, from)
		}
	}
}

func TestParse(t *testing.T) {
	if c, err := Parse(" eur "); err != nil || c != EUR {
		t.Fatalf("Parse eur = %q, %v", c, err)
	}
	if c, err := Parse(""); err != nil || c != Reference {
		t.Fatalf("Parse empty = %q, %v", c, err)
	}
	if _, err := Parse("XYZ"); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("Parse XYZ: want ErrInvalidArgument, got %v", err)
	}
}

func TestRatesArePositive(t *testing.T) {
	for _, c := range Supported() {
		r, err := Rate(c)
		if err != nil {
			t.Fatal(err)
		}
		if !r.IsPositive() {
			t.Fatalf("%s rate %s not positive", c, r)
		}
	}
}
