package options

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokujin-wiki/shokujin-api/pkg/db/dbtest"
)

func TestUpsertReusesExistingOption(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.CreateUser(t, conn, "太郎")
	repo := NewRepository(conn)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "大盛り", user.ID)
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, "大盛り", user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.IsVerified)
	require.NotNil(t, second.CreatedBy)
	assert.Equal(t, user.ID, *second.CreatedBy)

	var count int64
	require.NoError(t, conn.Table("options").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSearchOptions(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.CreateUser(t, conn, "")
	repo := NewRepository(conn)
	ctx := context.Background()
	for _, name := range []string{"Spicy", "ねぎ抜き", "spicy mayo", "100%_off"} {
		_, err := repo.Upsert(ctx, name, user.ID)
		require.NoError(t, err)
	}

	svc, err := NewService(repo)
	require.NoError(t, err)

	got, err := svc.SearchOptions(ctx, "SPICY")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Spicy", got[0].Name)
	assert.Equal(t, "spicy mayo", got[1].Name)

	got, err = svc.SearchOptions(ctx, "%_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100%_off", got[0].Name)

	got, err = svc.SearchOptions(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSearchOptionsLimit(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.CreateUser(t, conn, "")
	repo := NewRepository(conn)
	ctx := context.Background()
	for i := 0; i < SearchLimit+5; i++ {
		_, err := repo.Upsert(ctx, fmt.Sprintf("topping-%03d", i), user.ID)
		require.NoError(t, err)
	}

	svc, err := NewService(repo)
	require.NoError(t, err)
	got, err := svc.SearchOptions(ctx, "topping")
	require.NoError(t, err)
	assert.Len(t, got, SearchLimit)
	assert.Equal(t, "topping-000", got[0].Name)
}
