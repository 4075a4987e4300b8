package shop

import (
	"context"
	"strings"
)

// Ownership answers whether an authenticated principal owns a shop. The
// principal itself (session, token) is the concern of the excluded auth
// layer; the core only ever sees the resolved email.
type Ownership interface {
	IsOwner(ctx context.Context, shopID, principalEmail string) (bool, error)
}

// EmailOwnership matches the principal's email against the stored shop email.
type EmailOwnership struct {
	repo Repository
}

func NewEmailOwnership(repo Repository) *EmailOwnership {
	return &EmailOwnership{repo: repo}
}

func (o *EmailOwnership) IsOwner(ctx context.Context, shopID, principalEmail string) (bool, error) {
	if principalEmail == "" {
		return false, nil
	}
	s, err := o.repo.Get(ctx, shopID)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(s.Email, principalEmail), nil
}

// Authorize is the common guard used by mutating services: it resolves the
// ownership check into ErrNotFound / ErrNotOwner.
func Authorize(ctx context.Context, owner Ownership, shopID, principalEmail string) error {
	ok, err := owner.IsOwner(ctx, shopID, principalEmail)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotOwner
	}
	return nil
}
