package enums

import "testing"

func TestParsePeriodAcceptsEnumeratedTokens(t *testing.T) {
	for _, token := range []string{"daily", "weekly", "monthly", "yearly"} {
		period, err := ParsePeriod(token)
		if err != nil {
			t.Fatalf("ParsePeriod(%q) returned error: %v", token, err)
		}
		if period.String() != token {
			t.Fatalf("expected %q, got %q", token, period)
		}
		if !period.IsValid() {
			t.Fatalf("expected %q to be valid", token)
		}
	}
}

func TestParsePeriodRejectsEverythingElse(t *testing.T) {
	for _, token := range []string{"Daily", "hourly", "", " daily", "DAILY", "weekly "} {
		if _, err := ParsePeriod(token); err == nil {
			t.Fatalf("ParsePeriod(%q) should fail", token)
		}
	}
}

func TestPeriodIsValid(t *testing.T) {
	if Period("quarterly").IsValid() {
		t.Fatal("quarterly is not a known period")
	}
}
