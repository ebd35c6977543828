package domain

import "testing"

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from     LeadStatus
		to       LeadStatus
		wantFail bool
	}{
		{StatusNew, StatusContacted, false},
		{StatusRecycled, StatusContacted, false},
		{StatusContacted, StatusQualified, false},
		{StatusContacted, StatusClosedWon, false},
		{StatusContacted, StatusClosedLost, false},
		{StatusQualified, StatusClosedWon, false},
		{StatusQualified, StatusClosedLost, false},
		{StatusNew, StatusRecycled, false},
		{StatusContacted, StatusRecycled, false},
		{StatusQualified, StatusRecycled, false},
		{StatusRecycled, StatusRetired, false},

		// RECYCLED → NEW only happens through a claim, never as a request.
		{StatusRecycled, StatusNew, true},
		{StatusNew, StatusQualified, true},
		{StatusNew, StatusClosedWon, true},
		{StatusClosedWon, StatusContacted, true},
		{StatusClosedLost, StatusRecycled, true},
		{StatusRetired, StatusContacted, true},
		{StatusRetired, StatusRecycled, true},
		{StatusQualified, StatusContacted, true},
	}

	for _, tc := range tests {
		err := ValidateTransition(tc.from, tc.to)
		if tc.wantFail && err == nil {
			t.Errorf("ValidateTransition(%s, %s) should have been rejected", tc.from, tc.to)
		}
		if !tc.wantFail && err != nil {
			t.Errorf("ValidateTransition(%s, %s) unexpected error: %v", tc.from, tc.to, err)
		}
	}
}

func TestTerminalStatesAllowNothing(t *testing.T) {
	all := []LeadStatus{
		StatusNew, StatusContacted, StatusQualified,
		StatusClosedWon, StatusClosedLost, StatusRecycled, StatusRetired,
	}

	for _, from := range all {
		if !IsTerminal(from) {
			continue
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal status %s must not transition to %s", from, to)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("CONTACTED"); err != nil {
		t.Fatalf("ParseStatus(CONTACTED) unexpected error: %v", err)
	}
	if _, err := ParseStatus("contacted"); err == nil {
		t.Error("ParseStatus should reject lowercase variants")
	}
	if _, err := ParseStatus("ARCHIVED"); err == nil {
		t.Error("ParseStatus should reject unknown statuses")
	}
}

func TestIsActive(t *testing.T) {
	active := []LeadStatus{StatusNew, StatusContacted, StatusQualified}
	inactive := []LeadStatus{StatusClosedWon, StatusClosedLost, StatusRecycled, StatusRetired}

	for _, s := range active {
		if !IsActive(s) {
			t.Errorf("IsActive(%s) = false, want true", s)
		}
	}
	for _, s := range inactive {
		if IsActive(s) {
			t.Errorf("IsActive(%s) = true, want false", s)
		}
	}
}

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{100, TierAPlus},
		{90, TierAPlus},
		{89, TierA},
		{70, TierA},
		{69, TierBPlus},
		{50, TierBPlus},
		{49, TierB},
		{30, TierB},
		{29, TierC},
		{0, TierC},
	}

	for _, tc := range tests {
		if got := TierForScore(tc.score); got != tc.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
