package memory

import (
	"context"
	"testing"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/catalog"
	"broker-removal/internal/infrastructure/storage/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) output.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := storetest.NewUser()
	require.NoError(t, s.CreateUser(ctx, u))
	_, err := s.SeedBrokers(ctx, catalog.Brokers())
	require.NoError(t, err)
	brokers, err := s.ListBrokers(ctx)
	require.NoError(t, err)

	r, _, err := s.CreateRequest(ctx, u.ID, &brokers[0])
	require.NoError(t, err)
	r.Notes = "changed outside the store"

	got, err := s.GetRequest(ctx, u.ID, brokers[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)
}
