package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/evcraddock/keyswap/internal/finance"
)

func TestProfitCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand("profit", "--price", "400000", "--down", "$100,000", "--revenue", "60000")
	if err != nil {
		t.Fatalf("profit: %v", err)
	}
	for _, want := range []string{
		"Purchase price:      $400,000",
		"Down payment:        $100,000 (25.0%)",
		"Monthly revenue:     $5,000",
		"Cash-on-cash return:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProfitCommandJSON(t *testing.T) {
	isolate(t)

	out, err := executeCommand("profit", "--format", "json", "--price", "400000", "--revenue", "60000",
		"--rate", "6.5", "--term", "15")
	if err != nil {
		t.Fatalf("profit: %v", err)
	}

	var est finance.ProfitEstimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if est.DownPayment != 80000 {
		t.Errorf("down_payment = %v, want default 20%% of price", est.DownPayment)
	}
	if est.Assumptions.InterestRatePercent != 6.5 || est.Assumptions.LoanTermYears != 15 {
		t.Errorf("assumptions = %+v, want flag overrides", est.Assumptions)
	}
}

func TestProfitCommandDownPaymentPolicy(t *testing.T) {
	isolate(t)

	out, err := executeCommand("profit", "--format", "json", "--price", "400000", "--down", "lots")
	if err != nil {
		t.Fatalf("permissive profit: %v", err)
	}
	var est finance.ProfitEstimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if est.DownPayment != 0 {
		t.Errorf("down_payment = %v, want 0 for text without digits", est.DownPayment)
	}

	t.Setenv("KS_STRICT_INPUT", "true")
	if _, err := executeCommand("profit", "--price", "400000", "--down", "lots"); err == nil {
		t.Fatal("expected strict parsing to reject the down payment")
	}
}

func TestValueCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand("value", "--revenue", "72000", "--bedrooms", "3", "--bathrooms", "2",
		"--sqft", "1800", "--stars", "4.8", "--reviews", "42", "--amenity", "Private Pool", "--amenity", "Wi-Fi")
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	for _, want := range []string{"Estimated value:", "Revenue multiple:", "Breakdown:", "recognized)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAmenitiesCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand("amenities")
	if err != nil {
		t.Fatalf("amenities: %v", err)
	}
	for _, c := range finance.Catalog() {
		if !strings.Contains(out, c.Name) {
			t.Errorf("output missing category %q", c.Name)
		}
	}
}
