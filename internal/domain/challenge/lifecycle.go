package challenge

import (
	"slices"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
)

func invalidChallenge(from, to, reason string) error {
	return &domainerr.InvalidTransitionError{Entity: EntityChallenge, From: from, To: to, Reason: reason}
}

func invalidParticipation(from, to, reason string) error {
	return &domainerr.InvalidTransitionError{Entity: EntityParticipation, From: from, To: to, Reason: reason}
}

// Publish moves a draft into the schedule.
func Publish(c Challenge) (Challenge, error) {
	if c.Status != StatusDraft {
		return Challenge{}, invalidChallenge(c.Status, StatusScheduled, "only drafts can be published")
	}
	c.Status = StatusScheduled
	return c, nil
}

// Advance applies the time-driven moves for now. A challenge whose window
// already closed goes straight through active to evaluating.
func Advance(c Challenge, now time.Time) (Challenge, bool) {
	today := period.Day(now)
	start, end := period.Day(c.PeriodStart), period.Day(c.PeriodEnd)
	changed := false
	if c.Status == StatusScheduled && !today.Before(start) {
		c.Status = StatusActive
		changed = true
	}
	if c.Status == StatusActive && today.After(end) {
		c.Status = StatusEvaluating
		changed = true
	}
	return c, changed
}

// Complete closes evaluation once no participation awaits review.
func Complete(c Challenge, parts []Participation) (Challenge, error) {
	if c.Status != StatusEvaluating {
		return Challenge{}, invalidChallenge(c.Status, StatusCompleted, "challenge is not being evaluated")
	}
	for _, p := range parts {
		if !p.Resolved() {
			return Challenge{}, invalidChallenge(c.Status, StatusCompleted, "participation of "+p.EmployeeID+" is still submitted")
		}
	}
	c.Status = StatusCompleted
	return c, nil
}

func Archive(c Challenge) (Challenge, error) {
	if c.Status == StatusArchived {
		return Challenge{}, invalidChallenge(c.Status, StatusArchived, "already archived")
	}
	c.Status = StatusArchived
	return c, nil
}

// Override is the administrative escape hatch and the only backward path.
func Override(c Challenge, to string) (Challenge, error) {
	if !slices.Contains(statusOrder, to) {
		return Challenge{}, domainerr.Invalid("status", "unknown challenge status "+to)
	}
	if c.Status == to {
		return Challenge{}, invalidChallenge(c.Status, to, "status unchanged")
	}
	c.Status = to
	return c, nil
}

func Accept(c Challenge, p Participation, now time.Time) (Participation, error) {
	if c.Mandatory() {
		return Participation{}, invalidParticipation(p.Status, ParticipationAccepted, "mandatory challenges need no acceptance")
	}
	if c.Status != StatusScheduled && c.Status != StatusActive {
		return Participation{}, invalidParticipation(p.Status, ParticipationAccepted, "challenge is "+c.Status)
	}
	if p.Status != ParticipationPending {
		return Participation{}, invalidParticipation(p.Status, ParticipationAccepted, "")
	}
	at := now.UTC()
	p.Status = ParticipationAccepted
	p.AcceptedAt = &at
	return p, nil
}

func Submit(c Challenge, p Participation, submission string, now time.Time) (Participation, error) {
	if c.Status != StatusActive {
		return Participation{}, invalidParticipation(p.Status, ParticipationSubmitted, "challenge is "+c.Status)
	}
	from := ParticipationAccepted
	if c.Mandatory() {
		from = ParticipationPending
	}
	if p.Status != from {
		return Participation{}, invalidParticipation(p.Status, ParticipationSubmitted, "")
	}
	if strings.TrimSpace(submission) == "" {
		return Participation{}, domainerr.Invalid("submission", "is required")
	}
	at := now.UTC()
	p.Status = ParticipationSubmitted
	p.Submission = submission
	p.SubmittedAt = &at
	return p, nil
}

func Approve(c Challenge, p Participation, score *int, reviewerID string, now time.Time) (Participation, error) {
	if p.Status != ParticipationSubmitted {
		return Participation{}, invalidParticipation(p.Status, ParticipationApproved, "")
	}
	if score == nil {
		return Participation{}, domainerr.Invalid("score", "is required to approve")
	}
	if *score < 0 || *score > c.Points {
		return Participation{}, domainerr.Invalid("score", "must be between 0 and the challenge points")
	}
	at := now.UTC()
	value := *score
	p.Status = ParticipationApproved
	p.Score = &value
	p.ReviewerID = reviewerID
	p.ReviewedAt = &at
	return p, nil
}

func Reject(p Participation, feedback, reviewerID string, now time.Time) (Participation, error) {
	if p.Status != ParticipationSubmitted {
		return Participation{}, invalidParticipation(p.Status, ParticipationRejected, "")
	}
	if strings.TrimSpace(feedback) == "" {
		return Participation{}, domainerr.Invalid("feedback", "is required to reject")
	}
	at := now.UTC()
	p.Status = ParticipationRejected
	p.Score = nil
	p.Feedback = feedback
	p.ReviewerID = reviewerID
	p.ReviewedAt = &at
	return p, nil
}

// Resubmit reopens a rejected participation while the challenge still accepts work.
func Resubmit(c Challenge, p Participation, submission string, now time.Time) (Participation, error) {
	if p.Status != ParticipationRejected {
		return Participation{}, invalidParticipation(p.Status, ParticipationSubmitted, "only rejected participations can be resubmitted")
	}
	if c.Status != StatusActive && c.Status != StatusEvaluating {
		return Participation{}, invalidParticipation(p.Status, ParticipationSubmitted, "challenge is "+c.Status)
	}
	if strings.TrimSpace(submission) == "" {
		return Participation{}, domainerr.Invalid("submission", "is required")
	}
	at := now.UTC()
	p.Status = ParticipationSubmitted
	p.Submission = submission
	p.Score = nil
	p.SubmittedAt = &at
	p.ReviewedAt = nil
	return p, nil
}
