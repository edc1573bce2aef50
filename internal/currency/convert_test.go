package currency

import (
	"math"
	"testing"
)

var testRates = Rates{
	"USD": 1.0,
	"EUR": 0.92,
	"CZK": 23.5,
}

func TestConvertIdentity(t *testing.T) {
	// Same-currency conversion must be exact, even for values that would
	// pick up float error on a divide/multiply round-trip.
	for _, amount := range []float64{0, 1, 0.1, 1234.56, 99999999.99} {
		for _, code := range []string{"USD", "EUR", "CZK", "XXX"} {
			if got := Convert(amount, code, code, testRates); got != amount {
				t.Errorf("Convert(%v, %s, %s) = %v, want exact %v", amount, code, code, got, amount)
			}
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	pairs := [][2]string{{"USD", "EUR"}, {"EUR", "CZK"}, {"CZK", "USD"}}
	for _, pair := range pairs {
		for _, amount := range []float64{1, 100.5, 123456.78} {
			there := Convert(amount, pair[0], pair[1], testRates)
			back := Convert(there, pair[1], pair[0], testRates)
			if math.Abs(back-amount) > 1e-9 {
				t.Errorf("round trip %s->%s->%s of %v came back as %v", pair[0], pair[1], pair[0], amount, back)
			}
		}
	}
}

func TestConvertKnownValues(t *testing.T) {
	// 100 EUR at 0.92 EUR/USD is ~108.70 USD.
	got := Convert(100, "EUR", "USD", testRates)
	want := 100 / 0.92
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Convert(100, EUR, USD) = %v, want %v", got, want)
	}

	// 1 USD is 23.5 CZK.
	if got := Convert(1, "USD", "CZK", testRates); got != 23.5 {
		t.Errorf("Convert(1, USD, CZK) = %v, want 23.5", got)
	}
}

func TestConvertMissingRateUsesIdentity(t *testing.T) {
	// Unknown codes degrade to rate 1 instead of erroring.
	if got := Convert(50, "GBP", "USD", testRates); got != 50 {
		t.Errorf("Convert from unknown currency = %v, want 50", got)
	}
	if got := Convert(50, "USD", "GBP", testRates); got != 50 {
		t.Errorf("Convert to unknown currency = %v, want 50", got)
	}
	// A zero rate is treated the same as a missing one.
	broken := Rates{"USD": 1.0, "EUR": 0}
	if got := Convert(50, "EUR", "USD", broken); got != 50 {
		t.Errorf("Convert with zero rate = %v, want 50", got)
	}
}

func TestRound(t *testing.T) {
	cases := map[float64]float64{
		0:       0,
		0.4:     0,
		0.5:     1,
		1000.49: 1000,
		-2.5:    -3,
	}
	for in, want := range cases {
		if got := Round(in); got != want {
			t.Errorf("Round(%v) = %v, want %v", in, got, want)
		}
	}
}
