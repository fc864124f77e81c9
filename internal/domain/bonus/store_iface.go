package bonus

import "context"

type StoreAPI interface {
	GetConfig(ctx context.Context, orgID string) (Config, error)
	UpdateConfig(ctx context.Context, orgID string, cfg Config) error
}
