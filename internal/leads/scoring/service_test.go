package scoring

import (
	"context"
	"errors"
	"testing"

	"medleads_backend/internal/leads/domain"
)

// staticClassifier marks a fixed set of ZIPs as rural.
type staticClassifier struct {
	rural map[string]bool
	err   error
}

func (c *staticClassifier) IsRural(_ context.Context, zip string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.rural[zip], nil
}

func newService(ruralZips ...string) *Service {
	rural := make(map[string]bool, len(ruralZips))
	for _, z := range ruralZips {
		rural[z] = true
	}
	return New(&staticClassifier{rural: rural}, nil)
}

func primeLead(zip string) Input {
	return Input{
		Specialties:    []string{"Podiatrist", "Wound Care"},
		ProviderCount:  2,
		Phone:          "+1 212 555 0123",
		TaxID:          "81-2345679",
		PracticeZip:    zip,
		PracticeState:  "TX",
		SoleProprietor: false,
	}
}

func TestScoreRuralPrimeLeadIsAPlus(t *testing.T) {
	svc := newService("79831")

	result := svc.Score(context.Background(), primeLead("79831"))

	if result.Score < 90 {
		t.Errorf("prime rural lead score = %d, want >= 90", result.Score)
	}
	if result.Tier != domain.TierAPlus {
		t.Errorf("prime rural lead tier = %s, want A+", result.Tier)
	}
	if !result.Rural {
		t.Error("expected lead to be classified rural")
	}
}

func TestScoreNonRuralIdenticalLeadIsCapped(t *testing.T) {
	svc := newService() // no rural zips

	result := svc.Score(context.Background(), primeLead("10001"))

	if result.Score >= 50 {
		t.Errorf("non-rural lead score = %d, want < 50", result.Score)
	}
	if result.Tier == domain.TierA || result.Tier == domain.TierAPlus {
		t.Errorf("non-rural lead tier = %s, must never be A or A+", result.Tier)
	}
	if _, ok := result.Factors["non_rural_cap"]; !ok {
		t.Error("expected non_rural_cap factor to be recorded")
	}
}

func TestScoreBoundsHoldForArbitraryInput(t *testing.T) {
	svc := newService("79831")

	inputs := []Input{
		{}, // fully empty
		{Specialties: []string{"Underwater Basket Weaving"}},
		{Specialties: []string{"Podiatrist", "Wound Care", "Vascular Surgery", "Dermatology"},
			ProviderCount: 1, Phone: "+1 212 555 0123", TaxID: "81-2345679",
			SoleProprietor: true, PracticeZip: "79831", PracticeState: "WY",
			MailingAddress: "PO Box 12", PracticeAddress: "400 Main St"},
		{ProviderCount: -3, Phone: "not-a-phone", TaxID: "junk"},
	}

	for i, input := range inputs {
		result := svc.Score(context.Background(), input)
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("input %d: score %d out of [0,100]", i, result.Score)
		}
	}
}

func TestScoreMissingInputsDegradeToZero(t *testing.T) {
	svc := newService()

	result := svc.Score(context.Background(), Input{})

	if result.Score != 0 {
		t.Errorf("empty input score = %d, want 0", result.Score)
	}
	if result.Tier != domain.TierC {
		t.Errorf("empty input tier = %s, want C", result.Tier)
	}
}

func TestScoreMalformedContactFieldsCountAsAbsent(t *testing.T) {
	svc := newService("79831")

	valid := svc.Score(context.Background(), primeLead("79831"))

	spoiled := primeLead("79831")
	spoiled.Phone = "123"
	spoiled.TaxID = "00-0000000"
	capped := svc.Score(context.Background(), spoiled)

	if capped.Score >= valid.Score {
		t.Errorf("malformed contact fields should lower the score: %d >= %d", capped.Score, valid.Score)
	}
	if _, ok := capped.Factors["contact_phone"]; ok {
		t.Error("malformed phone must not contribute a factor")
	}
	if _, ok := capped.Factors["contact_tax_id"]; ok {
		t.Error("placeholder tax id must not contribute a factor")
	}
}

func TestScoreSpecialtyTable(t *testing.T) {
	svc := newService()

	tests := []struct {
		name        string
		specialties []string
		wantBase    float64
	}{
		{"combo outranks singles", []string{"Podiatrist", "Wound Care"}, footWoundComboScore},
		{"solo wound care", []string{"Wound Care"}, 45},
		{"solo podiatrist", []string{"Podiatrist"}, 40},
		{"primary care", []string{"Family Medicine"}, 15},
		{"unmatched", []string{"Astrology"}, 0},
		{"ampersand normalization", []string{"Foot & Ankle"}, 40},
	}

	for _, tc := range tests {
		base, _ := svc.specialtyBase(tc.specialties)
		if base != tc.wantBase {
			t.Errorf("%s: base = %v, want %v", tc.name, base, tc.wantBase)
		}
	}
}

func TestPracticeSizeBonusMonotone(t *testing.T) {
	prev := practiceSizeBonus(1)
	for count := 2; count <= 6; count++ {
		cur := practiceSizeBonus(count)
		if cur > prev {
			t.Errorf("practiceSizeBonus(%d) = %v > practiceSizeBonus(%d) = %v", count, cur, count-1, prev)
		}
		prev = cur
	}
	if practiceSizeBonus(5) != 0 {
		t.Errorf("practiceSizeBonus(5) = %v, want 0", practiceSizeBonus(5))
	}
}

func TestScoreRuralLookupFailureTreatedAsNonRural(t *testing.T) {
	svc := New(&staticClassifier{err: errors.New("ruca store down")}, nil)

	result := svc.Score(context.Background(), primeLead("79831"))

	if result.Rural {
		t.Error("lookup failure must degrade to non-rural")
	}
	if result.Tier == domain.TierA || result.Tier == domain.TierAPlus {
		t.Errorf("tier = %s after failed lookup, must not reach A tiers", result.Tier)
	}
}
