package challenge

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListChallenges(ctx context.Context, orgID string, statuses ...string) ([]Challenge, error)
	GetChallenge(ctx context.Context, orgID, challengeID string) (Challenge, error)
	CreateChallenge(ctx context.Context, c Challenge) (string, error)
	// UpdateChallengeStatus fails with domainerr.ErrConflict when the stored status is no longer from.
	UpdateChallengeStatus(ctx context.Context, orgID, challengeID, from, to string) error
	GetParticipation(ctx context.Context, orgID, challengeID, employeeID string) (Participation, error)
	ListParticipations(ctx context.Context, orgID, challengeID string) ([]Participation, error)
	CreateParticipation(ctx context.Context, p Participation) (string, error)
	// UpdateParticipation fails with domainerr.ErrConflict when the stored status is no longer from.
	UpdateParticipation(ctx context.Context, p Participation, from string) error
	ApprovedPoints(ctx context.Context, orgID string, endFrom, endTo time.Time) (map[string]int, error)
}
