package sealer

import "testing"

func TestCalendarTokenRoundTrip(t *testing.T) {
	token, err := CreateCalendarToken("venue-42", "2025-11-03")
	if err != nil {
		t.Fatalf("CreateCalendarToken failed: %v", err)
	}

	venueID, date, err := ParseCalendarToken(token)
	if err != nil {
		t.Fatalf("ParseCalendarToken failed: %v", err)
	}
	if venueID != "venue-42" || date != "2025-11-03" {
		t.Errorf("round trip got (%s, %s), want (venue-42, 2025-11-03)", venueID, date)
	}
}

func TestParseCalendarTokenRejectsGarbage(t *testing.T) {
	if _, _, err := ParseCalendarToken("not-a-token"); err == nil {
		t.Error("expected error for garbage token")
	}
	if _, _, err := ParseCalendarToken(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestTokensAreOpaque(t *testing.T) {
	a, err := CreateCalendarToken("venue-42", "2025-11-03")
	if err != nil {
		t.Fatal(err)
	}
	b, err := CreateCalendarToken("venue-42", "2025-11-03")
	if err != nil {
		t.Fatal(err)
	}
	// Fresh nonce each call, so equal payloads must not produce equal tokens.
	if a == b {
		t.Error("expected distinct tokens for identical payloads")
	}
}
