package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// SkillLevels and SkillFormats are the only values accepted for a listing.
var (
	SkillLevels  = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}
	SkillFormats = []string{"video", "live", "chat", "1-on-1", "group", "course", "materials"}
)

type Skill struct {
	ID           uuid.UUID `json:"id"`
	InstructorID uuid.UUID `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	Format       string    `json:"format"`
	Duration     *string   `json:"duration,omitempty"`
	Price        int       `json:"price"`
	ImageURL     *string   `json:"image_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SkillListing struct {
	Skill
	InstructorName   string  `json:"instructor_name"`
	InstructorAvatar *string `json:"instructor_avatar,omitempty"`
}

type SkillFacets struct {
	Categories []string `json:"categories"`
	Levels     []string `json:"levels"`
	Formats    []string `json:"formats"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// SkillContribution is the result of publishing a listing, including the
// credits earned for it.
type SkillContribution struct {
	Skill         Skill `json:"skill"`
	CreditsEarned int   `json:"credits_earned"`
	Credits       int   `json:"credits"`
}
