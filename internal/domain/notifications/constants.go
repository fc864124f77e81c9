package notifications

const (
	TypeAwardWon              = "award_won"
	TypeParticipationApproved = "participation_approved"
	TypeParticipationRejected = "participation_rejected"
	TypeChallengePublished    = "challenge_published"
)
