// Package scoring computes lead priority scores and tiers. Scoring is a
// pure, total function over raw practice attributes: missing or malformed
// inputs degrade to a zero contribution, they never produce an error.
package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"

	"medleads_backend/internal/leads/domain"
	"medleads_backend/platform/logger"
	"medleads_backend/platform/phone"
)

const (
	// ruleVersion tracks the scoring rule table for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	ruleVersion = "2026-v3-rural-gated"

	// nonRuralScoreCap is the hard ceiling for leads outside rural service
	// areas. Only rural leads may ever reach the A tiers, regardless of how
	// high the raw computation lands.
	nonRuralScoreCap = 49

	// footWoundComboScore is the base for practices covering both podiatric
	// and wound care, the primary outreach target.
	footWoundComboScore = 55
)

// specialtyWeights is the priority table for individual specialties,
// keyed by normalized name. Unmatched specialties contribute nothing.
var specialtyWeights = map[string]float64{
	"wound care":         45,
	"podiatrist":         40,
	"podiatry":           40,
	"foot and ankle":     40,
	"vascular surgery":   30,
	"plastic surgery":    28,
	"dermatology":        25,
	"geriatric medicine": 22,
	"infectious disease": 20,
	"family medicine":    15,
	"internal medicine":  15,
	"general practice":   12,
	"nurse practitioner": 10,
}

// footCareSpecialties and woundCareSpecialties define the two families
// whose combination triggers the combo base score.
var footCareSpecialties = map[string]bool{
	"podiatrist":     true,
	"podiatry":       true,
	"foot and ankle": true,
}

var woundCareSpecialties = map[string]bool{
	"wound care": true,
}

// smallStateBonus awards a population-context bonus for smaller service
// areas, by practice state.
var smallStateBonus = map[string]float64{
	"WY": 5, "VT": 5, "AK": 5, "ND": 5, "SD": 5, "MT": 5,
	"ID": 3, "WV": 3, "NE": 3, "NM": 3, "ME": 3, "NH": 3,
}

// einPattern accepts a 9-digit tax id with an optional hyphen after the
// two-digit prefix.
var einPattern = regexp.MustCompile(`^\d{2}-?\d{7}$`)

// einPlaceholders are well-known junk values seen in bulk imports.
var einPlaceholders = map[string]bool{
	"00-0000000": true,
	"000000000":  true,
	"99-9999999": true,
	"999999999":  true,
	"12-3456789": true,
	"123456789":  true,
}

// Input holds the raw lead attributes the engine scores. All fields are
// optional; whatever is absent simply contributes nothing.
type Input struct {
	Specialties     []string
	ProviderCount   int
	Phone           string
	TaxID           string
	SoleProprietor  bool
	PracticeZip     string
	PracticeState   string
	MailingAddress  string
	PracticeAddress string
}

// Result holds scoring output and factor details.
type Result struct {
	Score   int
	Tier    domain.Tier
	Rural   bool
	Factors map[string]float64
	Version string
}

// RuralClassifier reports whether a ZIP belongs to a rural service area
// (RUCA codes 4-10). Implemented by internal/rural.
type RuralClassifier interface {
	IsRural(ctx context.Context, zip string) (bool, error)
}

// Service computes lead scores against a single versioned rule table.
type Service struct {
	rural RuralClassifier
	log   *logger.Logger
}

// New creates a new scoring service.
func New(rural RuralClassifier, log *logger.Logger) *Service {
	return &Service{rural: rural, log: log}
}

// Score computes the priority score and tier for the given attributes.
// It never fails; a rural lookup error is logged and treated as non-rural,
// which can only hold a lead back, never promote it.
func (s *Service) Score(ctx context.Context, input Input) Result {
	score := 0.0
	factors := map[string]float64{}

	// Specialty base: highest-weighted matched specialty, with the
	// foot-care + wound-care combination outranking any single entry.
	base, matched := s.specialtyBase(input.Specialties)
	score += addFactor(factors, "specialty_base", base)

	// Multi-specialty bonus: breadth of relevant practice.
	score += addFactor(factors, "multi_specialty", multiSpecialtyBonus(matched))

	// Practice size: smaller independent practices are the preferred
	// targets, so the bonus decreases as provider count rises.
	score += addFactor(factors, "practice_size", practiceSizeBonus(input.ProviderCount))

	// Contact completeness: each present, well-formed field is a small
	// signal that the record points at a reachable decision maker.
	score += addFactor(factors, "contact_phone", phoneBonus(input.Phone))
	score += addFactor(factors, "contact_tax_id", taxIDBonus(input.TaxID))
	score += addFactor(factors, "sole_proprietor", soleProprietorBonus(input.SoleProprietor))
	score += addFactor(factors, "address_mismatch", addressMismatchBonus(input.MailingAddress, input.PracticeAddress))

	// Locale: smaller service areas get a small population-context bonus.
	score += addFactor(factors, "locale", localeBonus(input.PracticeState))

	rural := s.isRural(ctx, input.PracticeZip)
	if !rural && score > nonRuralScoreCap {
		// Hard business rule, not a bonus: non-rural leads never reach
		// the A tiers no matter how high the raw computation is.
		factors["non_rural_cap"] = nonRuralScoreCap - score
		score = nonRuralScoreCap
	}

	final := clampScore(score)

	return Result{
		Score:   final,
		Tier:    domain.TierForScore(final),
		Rural:   rural,
		Factors: factors,
		Version: ruleVersion,
	}
}

func (s *Service) isRural(ctx context.Context, zip string) bool {
	if s.rural == nil || strings.TrimSpace(zip) == "" {
		return false
	}

	rural, err := s.rural.IsRural(ctx, zip)
	if err != nil {
		if s.log != nil {
			s.log.Warn("rural classification failed, treating as non-rural", "zip", zip, "error", err)
		}
		return false
	}
	return rural
}

// specialtyBase returns the base score and the number of matched
// specialties from the priority table.
func (s *Service) specialtyBase(specialties []string) (float64, int) {
	best := 0.0
	matched := 0
	hasFootCare := false
	hasWoundCare := false

	for _, raw := range specialties {
		name := normalizeSpecialty(raw)
		weight, ok := specialtyWeights[name]
		if !ok {
			continue
		}
		matched++
		if weight > best {
			best = weight
		}
		if footCareSpecialties[name] {
			hasFootCare = true
		}
		if woundCareSpecialties[name] {
			hasWoundCare = true
		}
	}

	if hasFootCare && hasWoundCare {
		best = footWoundComboScore
	}

	return best, matched
}

func multiSpecialtyBonus(matched int) float64 {
	switch {
	case matched >= 3:
		return 15
	case matched >= 2:
		return 10
	default:
		return 0
	}
}

// practiceSizeBonus prefers small independent practices: a solo provider
// gets the maximum, five or more gets nothing. Unknown counts (zero or
// negative) contribute nothing rather than erroring.
func practiceSizeBonus(providerCount int) float64 {
	switch {
	case providerCount == 1:
		return 20
	case providerCount == 2:
		return 15
	case providerCount == 3:
		return 10
	case providerCount == 4:
		return 5
	default:
		return 0
	}
}

func phoneBonus(raw string) float64 {
	if phone.IsValid(raw) {
		return 8
	}
	return 0
}

func taxIDBonus(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || einPlaceholders[trimmed] {
		return 0
	}
	if !einPattern.MatchString(trimmed) {
		return 0
	}
	return 7
}

func soleProprietorBonus(soleProprietor bool) float64 {
	if soleProprietor {
		return 5
	}
	return 0
}

// addressMismatchBonus rewards a mailing address that differs from the
// practice address: it usually means the record carries a real
// administrative contact rather than a copy of the storefront.
func addressMismatchBonus(mailing, practice string) float64 {
	m := strings.ToLower(strings.TrimSpace(mailing))
	p := strings.ToLower(strings.TrimSpace(practice))
	if m == "" || p == "" || m == p {
		return 0
	}
	return 5
}

func localeBonus(state string) float64 {
	return smallStateBonus[strings.ToUpper(strings.TrimSpace(state))]
}

func normalizeSpecialty(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "&", "and")
	return strings.Join(strings.Fields(name), " ")
}

func addFactor(factors map[string]float64, key string, value float64) float64 {
	if math.Abs(value) < 0.01 {
		return 0
	}
	factors[key] = math.Round(value*10) / 10
	return value
}

func clampScore(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(math.Round(score))
}
