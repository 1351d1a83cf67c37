package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRemoveNotificationAssets(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewAssetStore(fs, "/srv/uploads")

	id := primitive.NewObjectID().Hex()
	keep := primitive.NewObjectID().Hex()
	require.NoError(t, afero.WriteFile(fs, store.NotificationDir(id)+"/poster.png", []byte("png"), 0o644))
	require.NoError(t, afero.WriteFile(fs, store.NotificationDir(id)+"/thumbs/small.png", []byte("png"), 0o644))
	require.NoError(t, afero.WriteFile(fs, store.NotificationDir(keep)+"/poster.png", []byte("png"), 0o644))

	require.NoError(t, store.RemoveNotificationAssets(id))

	exists, err := afero.DirExists(fs, store.NotificationDir(id))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(fs, store.NotificationDir(keep)+"/poster.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRemoveNotificationAssets_MissingDirectory(t *testing.T) {
	store := NewAssetStore(afero.NewMemMapFs(), "/srv/uploads")
	assert.NoError(t, store.RemoveNotificationAssets(primitive.NewObjectID().Hex()))
}

func TestRemoveNotificationAssets_RejectsPaths(t *testing.T) {
	store := NewAssetStore(afero.NewMemMapFs(), "/srv/uploads")
	for _, id := range []string{"", "..", "../../etc", "abc"} {
		assert.Error(t, store.RemoveNotificationAssets(id), id)
	}
}
