package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SwapStatusPending   = "pending"
	SwapStatusAccepted  = "accepted"
	SwapStatusDeclined  = "declined"
	SwapStatusCompleted = "completed"
)

type SwapSession struct {
	ID           uuid.UUID `json:"id"`
	SkillID      uuid.UUID `json:"skill_id"`
	InstructorID uuid.UUID `json:"instructor_id"`
	StudentID    uuid.UUID `json:"student_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *SwapSession) IsPending() bool {
	return s.Status == SwapStatusPending
}

func (s *SwapSession) HasParticipant(userID uuid.UUID) bool {
	return s.StudentID == userID || s.InstructorID == userID
}

type SwapSessionDetail struct {
	SwapSession
	SkillTitle     string `json:"skill_title"`
	SkillCategory  string `json:"skill_category"`
	SkillLevel     string `json:"skill_level"`
	InstructorName string `json:"instructor_name"`
	StudentName    string `json:"student_name"`
}

// SwapConfirmation is returned to the student after a successful request.
type SwapConfirmation struct {
	Session        SwapSession `json:"session"`
	SkillTitle     string      `json:"skill_title"`
	InstructorName string      `json:"instructor_name"`
	Credits        int         `json:"credits"`
	Message        string      `json:"message"`
}
