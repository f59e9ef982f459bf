// Package storetest holds the behaviour every output.Store backend must
// share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/catalog"
	"broker-removal/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Run(t *testing.T, newStore func(t *testing.T) output.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("brokers", func(t *testing.T) { testBrokers(t, newStore(t)) })
	t.Run("requests", func(t *testing.T) { testRequests(t, newStore(t)) })
	t.Run("request updates", func(t *testing.T) { testRequestUpdates(t, newStore(t)) })
}

func NewUser() *entity.UserProfile {
	return &entity.UserProfile{
		FullName:          "Jane Doe",
		FirstName:         "Jane",
		LastName:          "Doe",
		Email:             "jane@example.com",
		Phone:             "555-0100",
		CurrentAddress:    "1 Main St, Springfield, IL 62701",
		PreviousAddresses: []string{"9 Elm St, Austin, TX"},
		FamilyMembers:     []string{"John Doe"},
	}
}

func testUsers(t *testing.T, store output.Store) {
	ctx := context.Background()

	u := NewUser()
	require.NoError(t, store.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Equal(t, []string{"9 Elm St, Austin, TX"}, got.PreviousAddresses)
	assert.Equal(t, []string{"John Doe"}, got.FamilyMembers)

	got.Email = "jane.doe@example.com"
	require.NoError(t, store.UpdateUser(ctx, got))
	again, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", again.Email)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrUserNotFound)

	err = store.UpdateUser(ctx, &entity.UserProfile{ID: "missing"})
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func testBrokers(t *testing.T, store output.Store) {
	ctx := context.Background()

	added, err := store.SeedBrokers(ctx, catalog.Brokers())
	require.NoError(t, err)
	assert.Equal(t, 8, added)

	added, err = store.SeedBrokers(ctx, catalog.Brokers())
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	brokers, err := store.ListBrokers(ctx)
	require.NoError(t, err)
	require.Len(t, brokers, 8)
	for i, want := range catalog.Brokers() {
		assert.Equal(t, want.Name, brokers[i].Name, "catalog order is kept")
		assert.Equal(t, want.AutomationAvailable, brokers[i].AutomationAvailable)
		assert.Equal(t, want.RecipeRef, brokers[i].RecipeRef)
		assert.NotEmpty(t, brokers[i].ID)
	}

	got, err := store.GetBroker(ctx, brokers[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Spokeo", got.Name)
	assert.Equal(t, entity.CategoryPeopleSearch, got.Category)

	_, err = store.GetBroker(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrBrokerNotFound)
}

func testRequests(t *testing.T, store output.Store) {
	ctx := context.Background()

	u := NewUser()
	require.NoError(t, store.CreateUser(ctx, u))
	_, err := store.SeedBrokers(ctx, catalog.Brokers())
	require.NoError(t, err)
	brokers, err := store.ListBrokers(ctx)
	require.NoError(t, err)

	first, created, err := store.CreateRequest(ctx, u.ID, &brokers[0])
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.StatusPending, first.Status)
	assert.Equal(t, brokers[0].RemovalMethod, first.MethodUsed)
	assert.Nil(t, first.CompletedAt)
	assert.Zero(t, first.RetryCount)

	dup, created, err := store.CreateRequest(ctx, u.ID, &brokers[0])
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, dup.ID)

	_, _, err = store.CreateRequest(ctx, u.ID, &brokers[1])
	require.NoError(t, err)

	list, err := store.ListRequests(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := store.ListRequests(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)

	got, err := store.GetRequest(ctx, u.ID, brokers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = store.GetRequest(ctx, u.ID, "missing")
	assert.ErrorIs(t, err, entity.ErrRequestNotFound)
}

func testRequestUpdates(t *testing.T, store output.Store) {
	ctx := context.Background()

	u := NewUser()
	require.NoError(t, store.CreateUser(ctx, u))
	_, err := store.SeedBrokers(ctx, catalog.Brokers())
	require.NoError(t, err)
	brokers, err := store.ListBrokers(ctx)
	require.NoError(t, err)

	r, _, err := store.CreateRequest(ctx, u.ID, &brokers[0])
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.Transition(entity.StatusInProgress, now))
	r.Notes = "submitted"
	r.MethodUsed = "automated"
	r.RetryCount = 2
	r.ConfirmationDetails = map[string]any{"processed_at": "2026-03-01T12:00:00Z"}
	require.NoError(t, store.UpdateRequest(ctx, r.ID, entity.UpdateFrom(r)))

	got, err := store.GetRequest(ctx, u.ID, brokers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, got.Status)
	assert.Equal(t, "submitted", got.Notes)
	assert.Equal(t, "automated", got.MethodUsed)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, "2026-03-01T12:00:00Z", got.ConfirmationDetails["processed_at"])
	assert.Nil(t, got.CompletedAt)
	assert.True(t, now.Equal(got.UpdatedAt))

	require.NoError(t, got.Transition(entity.StatusCompleted, now.Add(time.Hour)))
	require.NoError(t, store.UpdateRequest(ctx, got.ID, entity.UpdateFrom(got)))

	done, err := store.GetRequest(ctx, u.ID, brokers[0].ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, now.Add(time.Hour).Equal(*done.CompletedAt))

	notes := "partial"
	require.NoError(t, store.UpdateRequest(ctx, got.ID, entity.RequestUpdate{Notes: &notes}))
	partial, err := store.GetRequest(ctx, u.ID, brokers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "partial", partial.Notes)
	assert.Equal(t, entity.StatusCompleted, partial.Status)

	err = store.UpdateRequest(ctx, "missing", entity.RequestUpdate{Notes: &notes})
	assert.ErrorIs(t, err, entity.ErrRequestNotFound)
}
