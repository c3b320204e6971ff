package models

import "github.com/google/uuid"

type MatchResult struct {
	MatchScore        int      `json:"matchScore"`
	MatchReason       string   `json:"matchReason"`
	RecommendedSkills []string `json:"recommendedSkills"`
}

type MatchCandidate struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	SkillsToTeach []string `json:"skillsToTeach"`
	SkillsToLearn []string `json:"skillsToLearn"`
}

type ProfileMatch struct {
	UserID        uuid.UUID   `json:"user_id"`
	Name          string      `json:"name"`
	AvatarURL     *string     `json:"avatar_url,omitempty"`
	SkillsToTeach []string    `json:"skills_to_teach"`
	SkillsToLearn []string    `json:"skills_to_learn"`
	Match         MatchResult `json:"match"`
}

// MatchRequest is what the scoring function sees: the caller's skills and
// interests plus the candidate profiles to rank.
type MatchRequest struct {
	UserSkills    []string         `json:"userSkills"`
	UserInterests []string         `json:"userInterests"`
	Candidates    []MatchCandidate `json:"candidates"`
}
