package service

import (
	"context"
	"sort"

	"ctf-flag-bot/internal/model"
	"ctf-flag-bot/internal/repository"
)

// ReportService produces the read-only aggregate views: leaderboard,
// registered users, the submission log and the bloods report. Callers
// capture each result once and page through it as a frozen snapshot.
type ReportService struct {
	userRepo       *repository.UserRepository
	submissionRepo *repository.SubmissionRepository
}

// NewReportService creates a new ReportService instance.
func NewReportService(userRepo *repository.UserRepository, submissionRepo *repository.SubmissionRepository) *ReportService {
	return &ReportService{
		userRepo:       userRepo,
		submissionRepo: submissionRepo,
	}
}

// Leaderboard returns all users in rank order.
func (s *ReportService) Leaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	entries, err := s.userRepo.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	sortLeaderboard(entries)
	return entries, nil
}

// sortLeaderboard orders entries by points descending, then by
// earliest last solve; users who never solved anything sort last
// among point ties. The store already returns this order, the sort
// keeps the rule authoritative in one place.
func sortLeaderboard(entries []*model.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return leaderboardLess(entries[i], entries[j])
	})
}

func leaderboardLess(a, b *model.LeaderboardEntry) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	switch {
	case a.LastSolve == nil && b.LastSolve == nil:
		return false
	case a.LastSolve == nil:
		return false
	case b.LastSolve == nil:
		return true
	default:
		return a.LastSolve.Before(*b.LastSolve)
	}
}

// Users returns every registered user.
func (s *ReportService) Users(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx)
}

// SubmissionLog returns the full submission history, newest first.
func (s *ReportService) SubmissionLog(ctx context.Context) ([]*model.SubmissionEntry, error) {
	return s.submissionRepo.Log(ctx)
}

// Bloods returns per-challenge distinct solver counts, alphabetically.
func (s *ReportService) Bloods(ctx context.Context) ([]*model.BloodCount, error) {
	return s.submissionRepo.BloodCounts(ctx)
}

// Solvers returns one challenge's solvers ordered by earliest correct
// submission; the head of the list is the first blood.
func (s *ReportService) Solvers(ctx context.Context, challenge string) ([]*model.Solver, error) {
	return s.submissionRepo.Solvers(ctx, challenge)
}
