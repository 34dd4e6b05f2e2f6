package repository

import (
	"context"

	"swiftcart/internal/domain/entity"
)

// UserRepository is the identity directory consumed by the chat core.
// Profile management lives in the account service; the relay only needs
// display data for counterpart enrichment.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
