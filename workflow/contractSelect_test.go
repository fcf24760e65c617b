package workflow

import (
	"testing"
	"time"

	"github.com/serialpress/novels_backend/models"
)

func contract(id int, effectiveFrom time.Time) *models.RoyaltyContract {
	return &models.RoyaltyContract{
		ID:            id,
		NovelId:       1,
		Role:          models.RoyaltyRoleAuthor,
		ContributorId: 10,
		EffectiveFrom: effectiveFrom,
	}
}

func TestSelectContract_LatestEffectiveFromWins(t *testing.T) {
	older := contract(5, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := contract(3, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if got := SelectContract([]*models.RoyaltyContract{older, newer}); got != newer {
		t.Fatalf("expected contract %d, got %v", newer.ID, got)
	}
	// order must not matter
	if got := SelectContract([]*models.RoyaltyContract{newer, older}); got != newer {
		t.Fatalf("expected contract %d regardless of input order, got %v", newer.ID, got)
	}
}

func TestSelectContract_TieBrokenByHighestId(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	low := contract(7, at)
	high := contract(12, at)

	if got := SelectContract([]*models.RoyaltyContract{low, high}); got != high {
		t.Fatalf("expected contract %d, got %v", high.ID, got)
	}
	if got := SelectContract([]*models.RoyaltyContract{high, low}); got != high {
		t.Fatalf("expected contract %d regardless of input order, got %v", high.ID, got)
	}
}

func TestSelectContract_EmptyAndNilCandidates(t *testing.T) {
	if got := SelectContract(nil); got != nil {
		t.Fatalf("expected nil for no candidates, got %v", got)
	}
	only := contract(1, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if got := SelectContract([]*models.RoyaltyContract{nil, only, nil}); got != only {
		t.Fatalf("expected the only non-nil candidate, got %v", got)
	}
}
