package ranking

import "context"

type StoreAPI interface {
	GetSettings(ctx context.Context, orgID string) (Settings, error)
	UpdateSettings(ctx context.Context, orgID string, settings Settings) error
}
