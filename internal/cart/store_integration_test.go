//go:build integration

package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	db, err := ConnectMongoDB(ctx, uri, "storefront_test")
	require.NoError(t, err)

	s := NewStore(db)
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func TestStore_ReplaceGetClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	empty, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	saved, err := s.Replace(ctx, "u-1", []Item{
		{ProductID: "p-1", Name: "Zip Polo", Size: "L", Quantity: 2, Price: decimal.RequireFromString("999.50")},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1999).Equal(saved.TotalAmount))

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, saved.TotalAmount.Equal(got.TotalAmount))

	require.NoError(t, s.Clear(ctx, "u-1"))
	got, err = s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.True(t, got.TotalAmount.IsZero())
}
