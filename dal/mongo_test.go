package dal

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"souverain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupMongoStore connects to MONGO_TEST_URI and uses a throwaway database.
func setupMongoStore(t *testing.T) *MongoStore {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("birthdays_test_%s", uuid.NewString()[:8])
	store, err := OpenMongo(ctx, uri, dbName, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.client.Database(dbName).Drop(ctx)
		_ = store.Close(ctx)
	})

	return store
}

func TestMongoStore_Birthdays(t *testing.T) {
	store := setupMongoStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateBirthday(ctx, models.NewBirthday("G1", "A", date(t, 2000, time.March, 15))))
	require.NoError(t, store.CreateBirthday(ctx, models.NewBirthday("G1", "B", date(t, 1987, time.March, 15))))
	require.NoError(t, store.CreateBirthday(ctx, models.NewBirthday("G1", "C", date(t, 2000, time.April, 1))))

	err := store.CreateBirthday(ctx, models.NewBirthday("G1", "A", date(t, 2001, time.May, 5)))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	got, err := store.BirthdaysOn(ctx, time.March, 15)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].UserID)
	assert.Equal(t, "B", got[1].UserID)

	updated, err := store.UpdateBirthday(ctx, "G1", "C", date(t, 2000, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, uint(3), updated.Month)

	got, err = store.BirthdaysOn(ctx, time.March, 15)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = store.UpdateBirthday(ctx, "G1", "Z", date(t, 2000, time.March, 15))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetBirthday(ctx, "G2", "A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoStore_UpsertGuildConfig(t *testing.T) {
	store := setupMongoStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertGuildConfig(ctx, models.GuildConfig{GuildID: "G1", BirthdayChannelID: "C1"}))
	require.NoError(t, store.UpsertGuildConfig(ctx, models.GuildConfig{GuildID: "G1", BirthdayChannelID: "C2"}))

	got, err := store.GetGuildConfig(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "C2", got.BirthdayChannelID)

	count, err := store.configs.CountDocuments(ctx, map[string]string{"guild_id": "G1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
