package awards

import "context"

type StoreAPI interface {
	ListAwards(ctx context.Context, orgID string) ([]Award, error)
	GetAward(ctx context.Context, orgID, awardID string) (Award, error)
	CreateAward(ctx context.Context, a Award) (string, error)
	UpdateAward(ctx context.Context, a Award) error
	// UpsertHistory replaces the winners of any entry already recorded for
	// (award, period) and returns the stored row. Notes are kept when the new
	// entry has none; the delivery photo is always kept.
	UpsertHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
	ListHistory(ctx context.Context, orgID, period string) ([]HistoryEntry, error)
	GetHistory(ctx context.Context, orgID, historyID string) (HistoryEntry, error)
	SetCertificateURL(ctx context.Context, orgID, historyID, url string) error
	SetDeliveryPhotoURL(ctx context.Context, orgID, historyID, url string) error
}
