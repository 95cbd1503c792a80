package service

import (
	"context"
	"strings"
	"time"

	"ctf-flag-bot/internal/model"
	"ctf-flag-bot/internal/repository"
)

// SubmissionService guides flag submission: computing the unsolved
// set, judging attempts and awarding points.
type SubmissionService struct {
	challengeRepo  *repository.ChallengeRepository
	submissionRepo *repository.SubmissionRepository
	userRepo       *repository.UserRepository
}

// NewSubmissionService creates a new SubmissionService instance.
func NewSubmissionService(
	challengeRepo *repository.ChallengeRepository,
	submissionRepo *repository.SubmissionRepository,
	userRepo *repository.UserRepository,
) *SubmissionService {
	return &SubmissionService{
		challengeRepo:  challengeRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
	}
}

// Verdict is the outcome of one flag attempt.
type Verdict struct {
	Correct bool
	Points  int64 // point value of the challenge, awarded only when Correct
}

// Unsolved returns the challenges the user has no correct submission
// for yet: {all challenge names} minus {names solved by the user}.
func (s *SubmissionService) Unsolved(ctx context.Context, userID int64) ([]string, error) {
	all, err := s.challengeRepo.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	solved, err := s.submissionRepo.SolvedNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	return unsolvedOf(all, solved), nil
}

// unsolvedOf computes the set difference all minus solved, preserving
// the order of all. Incorrect attempts never remove a challenge from
// the unsolved set.
func unsolvedOf(all, solved []string) []string {
	solvedSet := make(map[string]struct{}, len(solved))
	for _, name := range solved {
		solvedSet[name] = struct{}{}
	}

	unsolved := make([]string, 0, len(all))
	for _, name := range all {
		if _, ok := solvedSet[name]; !ok {
			unsolved = append(unsolved, name)
		}
	}
	return unsolved
}

// Submit judges one attempt against the challenge's current secret.
// The attempt is logged whatever the outcome; a correct one increments
// the user's points and stamps the last-solve time. Comparison is
// exact after trimming surrounding whitespace from the raw input.
// Returns repository.ErrChallengeNotFound when the challenge was
// deleted mid-flow.
func (s *SubmissionService) Submit(ctx context.Context, userID int64, challenge, rawFlag string) (*Verdict, error) {
	ch, err := s.challengeRepo.GetByName(ctx, challenge)
	if err != nil {
		return nil, err
	}

	flag := strings.TrimSpace(rawFlag)
	correct := Judge(ch, flag)

	if _, err := s.submissionRepo.Create(ctx, userID, ch.Name, flag, correct); err != nil {
		return nil, err
	}

	if correct {
		now := time.Now().UTC()
		if _, err := s.userRepo.AddPoints(ctx, userID, ch.Points, &now); err != nil {
			return nil, err
		}
	}
	return &Verdict{Correct: correct, Points: ch.Points}, nil
}

// Judge compares a trimmed attempt to a challenge secret. Split out so
// the comparison rule is testable without storage.
func Judge(ch *model.Challenge, rawFlag string) bool {
	return strings.TrimSpace(rawFlag) == ch.Flag
}
