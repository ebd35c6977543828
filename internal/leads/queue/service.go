// Package queue provides the assignment queue: an ordered, claimable view
// over eligible leads. Eligibility is status NEW or RECYCLED with recycling
// budget remaining; ordering is score descending with oldest-first
// tie-breaking.
package queue

import (
	"context"

	"medleads_backend/internal/leads/repository"
	"medleads_backend/platform/logger"

	"github.com/google/uuid"
)

// candidateMultiplier controls how many extra candidates a Pop fetches to
// absorb claim races without a second round trip in the common case.
const candidateMultiplier = 2

type Service struct {
	repo                 repository.LeadsRepository
	maxRecyclingAttempts int
	log                  *logger.Logger
}

func New(repo repository.LeadsRepository, maxRecyclingAttempts int, log *logger.Logger) *Service {
	return &Service{repo: repo, maxRecyclingAttempts: maxRecyclingAttempts, log: log}
}

// Preview returns up to limit eligible leads without claiming them.
func (s *Service) Preview(ctx context.Context, limit int) ([]repository.Lead, error) {
	if limit <= 0 {
		return []repository.Lead{}, nil
	}
	return s.repo.ListEligible(ctx, limit, s.maxRecyclingAttempts)
}

// Pop claims up to n eligible leads for the given agent. Each claim is a
// single conditional write; a lost race simply moves on to the next
// candidate. Short supply returns fewer leads, never an error.
func (s *Service) Pop(ctx context.Context, agentID uuid.UUID, n int) ([]repository.Lead, error) {
	if n <= 0 {
		return []repository.Lead{}, nil
	}

	claimed := make([]repository.Lead, 0, n)

	// Two passes: the first fetch usually suffices; the second catches the
	// case where concurrent callers drained most of the first batch.
	for attempt := 0; attempt < 2 && len(claimed) < n; attempt++ {
		remaining := n - len(claimed)
		candidates, err := s.repo.ListEligible(ctx, remaining*candidateMultiplier, s.maxRecyclingAttempts)
		if err != nil {
			return claimed, err
		}
		if len(candidates) == 0 {
			break
		}

		raced := false
		for _, candidate := range candidates {
			if len(claimed) >= n {
				break
			}

			lead, ok, err := s.repo.ClaimLead(ctx, candidate.ID, agentID, s.maxRecyclingAttempts)
			if err != nil {
				return claimed, err
			}
			if !ok {
				raced = true
				continue
			}
			claimed = append(claimed, lead)
		}

		if !raced {
			break
		}
	}

	return claimed, nil
}
