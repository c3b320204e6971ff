package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CreditReasonSignup       = "signup_grant"
	CreditReasonContribution = "skill_contribution"
	CreditReasonSwapRequest  = "swap_request"
	CreditReasonManualGrant  = "grant"
	CreditReasonDebit        = "debit"
)

type CreditTransaction struct {
	ID           int64      `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Delta        int        `json:"delta"`
	Reason       string     `json:"reason"`
	BalanceAfter int        `json:"balance_after"`
	SessionID    *uuid.UUID `json:"session_id,omitempty"`
	SkillID      *uuid.UUID `json:"skill_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Remediation is the call to action shown when a user has run out of credits.
type Remediation struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

type CreditBalance struct {
	Credits int `json:"credits"`
}
