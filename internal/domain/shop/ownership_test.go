package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type singleShopRepo struct{ shop *Shop }

func (r *singleShopRepo) Insert(_ context.Context, s *Shop) error {
	r.shop = s
	return nil
}

func (r *singleShopRepo) Get(_ context.Context, id string) (*Shop, error) {
	if r.shop == nil || r.shop.ID != id {
		return nil, ErrNotFound
	}
	return r.shop.Clone(), nil
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	s, err := New("shop-1", "Test Shop", "owner@example.com")
	require.NoError(t, err)
	owner := NewEmailOwnership(&singleShopRepo{shop: s})

	tests := []struct {
		name      string
		shopID    string
		principal string
		want      error
	}{
		{"owner", "shop-1", "owner@example.com", nil},
		{"case insensitive", "shop-1", "OWNER@Example.Com", nil},
		{"stranger", "shop-1", "stranger@example.com", ErrNotOwner},
		{"empty principal", "shop-1", "", ErrNotOwner},
		{"unknown shop", "shop-ghost", "owner@example.com", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(ctx, owner, tt.shopID, tt.principal)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New("shop-1", "", "owner@example.com")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = New("shop-1", "Test Shop", "")
	assert.ErrorIs(t, err, ErrEmailRequired)
}
