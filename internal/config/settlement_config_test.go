package config

import "testing"

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CREDIT_EXPIRY_DAYS", "0")
	if got := getEnvInt("CREDIT_EXPIRY_DAYS", 365); got != 0 {
		t.Errorf("zero value = %d, want 0 (disables expiry)", got)
	}

	t.Setenv("CREDIT_EXPIRY_DAYS", "-3")
	if got := getEnvInt("CREDIT_EXPIRY_DAYS", 365); got != 365 {
		t.Errorf("negative value = %d, want the 365 fallback", got)
	}

	t.Setenv("CREDIT_EXPIRY_DAYS", "not-a-number")
	if got := getEnvInt("CREDIT_EXPIRY_DAYS", 365); got != 365 {
		t.Errorf("garbage value = %d, want the 365 fallback", got)
	}

	if got := getEnvInt("UNSET_SETTLEMENT_KNOB", 7); got != 7 {
		t.Errorf("unset value = %d, want the 7 fallback", got)
	}
}
