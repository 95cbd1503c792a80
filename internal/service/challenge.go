package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"ctf-flag-bot/internal/model"
	"ctf-flag-bot/internal/repository"
)

// ChallengeService handles the challenge catalog and the authoring
// commit and delete operations.
type ChallengeService struct {
	challengeRepo *repository.ChallengeRepository
}

// NewChallengeService creates a new ChallengeService instance.
func NewChallengeService(challengeRepo *repository.ChallengeRepository) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo}
}

// ListNames returns all challenge names, sorted for a deterministic
// catalog view.
func (s *ChallengeService) ListNames(ctx context.Context) ([]string, error) {
	return s.challengeRepo.ListNames(ctx)
}

// Detail returns one challenge for the read-only detail card.
// Returns repository.ErrChallengeNotFound when it was deleted between
// listing and selection.
func (s *ChallengeService) Detail(ctx context.Context, name string) (*model.Challenge, error) {
	return s.challengeRepo.GetByName(ctx, name)
}

// Commit upserts a challenge from a completed authoring flow, fully
// replacing any previous flag, points and link under the same name.
func (s *ChallengeService) Commit(ctx context.Context, name, flag string, points int64, link string) (*model.Challenge, error) {
	ch, err := s.challengeRepo.Upsert(ctx, name, flag, points, link)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("challenge", ch.Name).
		Int64("points", ch.Points).
		Msg("Challenge upserted")
	return ch, nil
}

// Delete removes a challenge, its submissions and the points it had
// awarded, all in one transaction. Returns the retracted point value
// and the number of affected solvers.
func (s *ChallengeService) Delete(ctx context.Context, name string) (int64, int64, error) {
	points, solvers, err := s.challengeRepo.DeleteCascade(ctx, name)
	if err != nil {
		return 0, 0, err
	}

	log.Info().
		Str("challenge", name).
		Int64("points", points).
		Int64("solvers", solvers).
		Msg("Challenge deleted with cascade")
	return points, solvers, nil
}
