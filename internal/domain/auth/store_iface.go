package auth

import "context"

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	CreateUser(ctx context.Context, user User) (string, error)
	OrganizationName(ctx context.Context, orgID string) (string, error)
}
