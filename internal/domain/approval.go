package domain

import (
	"errors"
	"fmt"
	"time"
)

type ApprovalType string

const (
	ApprovalClassification          ApprovalType = "classification"
	ApprovalContentReview           ApprovalType = "content_review"
	ApprovalDeploymentAuthorization ApprovalType = "deployment_authorization"
	ApprovalConflictResolution      ApprovalType = "conflict_resolution"
)

type ApprovalPriority string

const (
	PriorityUrgent ApprovalPriority = "urgent"
	PriorityHigh   ApprovalPriority = "high"
	PriorityNormal ApprovalPriority = "normal"
	PriorityLow    ApprovalPriority = "low"
)

// Статусы жизненного цикла запроса в очереди
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalInReview  ApprovalStatus = "in_review"
	ApprovalEscalated ApprovalStatus = "escalated"
)

// Decision — решение оператора. После отправки запрос уходит из pending на стороне бэкенда.
type Decision string

const (
	DecisionApproved     Decision = "approved"
	DecisionNeedsChanges Decision = "needs_changes"
	DecisionRejected     Decision = "rejected"
)

var (
	ErrInvalidDecision = errors.New("invalid approval decision")
	ErrMissingApprover = errors.New("approver is required")
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionNeedsChanges, DecisionRejected:
		return true
	}
	return false
}

// ApprovalRequest — запрос на ручное подтверждение (HITL). Между опросами клиент считает его неизменяемым.
type ApprovalRequest struct {
	ApprovalID       string           `json:"approval_id"`
	Type             ApprovalType     `json:"type"`
	Name             string           `json:"name,omitempty"`
	Description      string           `json:"description,omitempty"`
	Priority         ApprovalPriority `json:"priority"`
	Status           ApprovalStatus   `json:"status"`
	Requester        string           `json:"requester"`
	Context          string           `json:"context,omitempty"`
	AssignedReviewer string           `json:"assigned_reviewer,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	TimeoutAt    *time.Time `json:"timeout_at,omitempty"`
	EscalationAt *time.Time `json:"escalation_at,omitempty"`
}

// DecisionForm — тело POST /pipeline/approval/{id}/decision.
type DecisionForm struct {
	Decision         Decision  `json:"decision"`
	Comments         string    `json:"comments"`
	Approver         string    `json:"approver"`
	RequestedChanges string    `json:"requested_changes"`
	ApprovalReason   string    `json:"approval_reason"`
	Timestamp        time.Time `json:"timestamp"`
}

// Validate проверяет форму до отправки на бэкенд
func (f DecisionForm) Validate() error {
	if !f.Decision.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, f.Decision)
	}
	if f.Approver == "" {
		return ErrMissingApprover
	}
	return nil
}

// ApprovalFilter — параметры ?type=&priority= очереди. Пустое поле означает "all".
type ApprovalFilter struct {
	Type     ApprovalType
	Priority ApprovalPriority
}

func (f ApprovalFilter) Match(a ApprovalRequest) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Priority != "" && a.Priority != f.Priority {
		return false
	}
	return true
}
