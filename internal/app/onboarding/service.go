package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"bhabhi/internal/ports"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	stats    ports.StatsPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/stats must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, stats ports.StatsPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		stats:    stats,
		rng:      rng,
	}
}

// OnboardNewUser initializes the profile and stats record for a newly
// created account. userID identifies the new account to initialize.
// Returns a Result with any non-fatal issues and an error if the stats
// record cannot be created.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.stats == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{}
	displayName := s.generateFriendlyName()
	if err := s.accounts.UpdateProfile(ctx, userID, displayName, displayName); err != nil {
		// Profile updates are best-effort; the stats record matters more.
		result.ProfileUpdateErr = err
	}

	if err := s.stats.EnsureStats(ctx, userID); err != nil {
		return result, fmt.Errorf("failed to create stats record: %w", err)
	}

	return result, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Lucky", "Fearless", "Cheeky", "Quiet", "Quick", "Bold", "Grand", "Sneaky", "Jolly", "Stormy"}
	nouns := []string{"Peacock", "Cobra", "Mongoose", "Heron", "Leopard", "Camel", "Parrot", "Buffalo", "Jackal", "Sparrow"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
