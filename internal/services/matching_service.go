package services

import (
	"context"
	"sort"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
)

const (
	matchCandidateLimit = 20
	noMatchReason       = "No match data available"
)

type matchProfileSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListMatchCandidates(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.ProfileMatch, error)
}

type ownSkillSource interface {
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]models.Skill, error)
}

type MatchingService struct {
	users          matchProfileSource
	skills         ownSkillSource
	scorer         ProfileScorer
	timeout        time.Duration
	scoringTimeout time.Duration
}

func NewMatchingService(
	users matchProfileSource,
	skills ownSkillSource,
	scorer ProfileScorer,
	timeout time.Duration,
	scoringTimeout time.Duration,
) *MatchingService {
	if scorer == nil {
		scorer = noopScorer{}
	}
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	if scoringTimeout <= 0 {
		scoringTimeout = defaultStoreTimeout
	}
	return &MatchingService{
		users:          users,
		skills:         skills,
		scorer:         scorer,
		timeout:        timeout,
		scoringTimeout: scoringTimeout,
	}
}

type MatchInput struct {
	Skills    []string
	Interests []string
}

// FindMatches scores other members against the caller. Missing skills or
// interests fall back to the caller's listings and stored interests.
func (s *MatchingService) FindMatches(
	ctx context.Context,
	userID uuid.UUID,
	input MatchInput,
) ([]models.ProfileMatch, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	skills, interests, err := s.profileTerms(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := withTimeout(ctx, s.timeout)
	candidates, err := s.users.ListMatchCandidates(storeCtx, userID, matchCandidateLimit)
	cancel()
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	request := models.MatchRequest{
		UserSkills:    skills,
		UserInterests: interests,
		Candidates:    make([]models.MatchCandidate, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		request.Candidates = append(request.Candidates, models.MatchCandidate{
			ID:            candidate.UserID.String(),
			Name:          candidate.Name,
			SkillsToTeach: candidate.SkillsToTeach,
			SkillsToLearn: candidate.SkillsToLearn,
		})
	}

	scoreCtx, cancelScore := withTimeout(ctx, s.scoringTimeout)
	scores := s.scorer.ScoreProfiles(scoreCtx, request)
	cancelScore()

	for i := range candidates {
		result, ok := scores[candidates[i].UserID.String()]
		if !ok {
			result = models.MatchResult{MatchReason: noMatchReason, RecommendedSkills: []string{}}
		}
		candidates[i].Match = result
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Match.MatchScore > candidates[j].Match.MatchScore
	})
	return candidates, nil
}

func (s *MatchingService) SuggestSkills(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	skills, interests, err := s.profileTerms(ctx, userID, MatchInput{})
	if err != nil {
		return nil, err
	}

	scoreCtx, cancel := withTimeout(ctx, s.scoringTimeout)
	defer cancel()
	return s.scorer.SuggestSkills(scoreCtx, skills, interests), nil
}

func (s *MatchingService) profileTerms(
	ctx context.Context,
	userID uuid.UUID,
	input MatchInput,
) ([]string, []string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	skills := input.Skills
	if len(skills) == 0 {
		owned, err := s.skills.ListByInstructor(ctx, userID)
		if err != nil {
			return nil, nil, classifyStoreError(err)
		}
		skills = make([]string, 0, len(owned))
		for _, skill := range owned {
			skills = append(skills, skill.Title)
		}
	}

	interests := input.Interests
	if len(interests) == 0 {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, nil, classifyStoreError(err)
		}
		interests = user.Interests
	}

	if skills == nil {
		skills = []string{}
	}
	if interests == nil {
		interests = []string{}
	}
	return skills, interests, nil
}

type noopScorer struct{}

func (noopScorer) ScoreProfiles(context.Context, models.MatchRequest) map[string]models.MatchResult {
	return map[string]models.MatchResult{}
}

func (noopScorer) SuggestSkills(context.Context, []string, []string) []string {
	return []string{}
}
