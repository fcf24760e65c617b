package workflow

import (
	"github.com/serialpress/novels_backend/models"
)

// SelectContract picks the winning contract from a candidate list for one
// (novel, role). Reference data should never hand us overlapping effective
// ranges, but when it does the choice must be deterministic: latest
// effective_from wins, then highest id.
func SelectContract(candidates []*models.RoyaltyContract) *models.RoyaltyContract {
	var winner *models.RoyaltyContract
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if winner == nil {
			winner = candidate
			continue
		}
		if candidate.EffectiveFrom.After(winner.EffectiveFrom) {
			winner = candidate
			continue
		}
		if candidate.EffectiveFrom.Equal(winner.EffectiveFrom) && candidate.ID > winner.ID {
			winner = candidate
		}
	}
	return winner
}
