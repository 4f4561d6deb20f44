package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"bhabhi/internal/ports"
)

type fakeAccountPort struct {
	updateErr error
	updates   []profileCall
}

type profileCall struct {
	userID      string
	username    string
	displayName string
}

func (f *fakeAccountPort) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	f.updates = append(f.updates, profileCall{userID: userID, username: username, displayName: displayName})
	return f.updateErr
}

type fakeStatsPort struct {
	ensureErr error
	ensured   []string
}

func (f *fakeStatsPort) GetStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	return ports.PlayerStats{}, nil
}

func (f *fakeStatsPort) RecordResult(ctx context.Context, userID string, won bool) error {
	return nil
}

func (f *fakeStatsPort) EnsureStats(ctx context.Context, userID string) error {
	f.ensured = append(f.ensured, userID)
	return f.ensureErr
}

func TestOnboardNewUser_CreatesStatsRecord(t *testing.T) {
	accounts := &fakeAccountPort{}
	stats := &fakeStatsPort{}
	service := NewService(accounts, stats, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.ProfileUpdateErr != nil {
		t.Fatalf("Expected no profile update error, got %v", result.ProfileUpdateErr)
	}

	if len(stats.ensured) != 1 || stats.ensured[0] != "user-1" {
		t.Fatalf("Expected stats record for user-1, got %v", stats.ensured)
	}
	if len(accounts.updates) != 1 {
		t.Fatalf("Expected 1 profile update, got %d", len(accounts.updates))
	}
	if accounts.updates[0].displayName == "" {
		t.Fatal("Expected a generated display name")
	}
}

func TestOnboardNewUser_ProfileFailureStillCreatesStats(t *testing.T) {
	stats := &fakeStatsPort{}
	service := NewService(&fakeAccountPort{updateErr: errors.New("update failed")}, stats, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.ProfileUpdateErr == nil {
		t.Fatal("Expected profile update error to be captured")
	}
	if len(stats.ensured) != 1 {
		t.Fatalf("Expected 1 stats record call, got %d", len(stats.ensured))
	}
}

func TestOnboardNewUser_StatsFailureReturnsError(t *testing.T) {
	service := NewService(&fakeAccountPort{}, &fakeStatsPort{ensureErr: errors.New("storage failed")}, rand.New(rand.NewSource(1)))

	if _, err := service.OnboardNewUser(context.Background(), "user-1"); err == nil {
		t.Fatal("Expected error when stats record creation fails")
	}
}

func TestGenerateFriendlyNameIsDeterministicPerSeed(t *testing.T) {
	a := NewService(&fakeAccountPort{}, &fakeStatsPort{}, rand.New(rand.NewSource(7)))
	b := NewService(&fakeAccountPort{}, &fakeStatsPort{}, rand.New(rand.NewSource(7)))

	if a.generateFriendlyName() != b.generateFriendlyName() {
		t.Fatal("Expected identical names for identical seeds")
	}
}
