// Package storage manages uploaded files under the upload root
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"tamil_society/internal/logger"

	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notificationsDir = "notifications"

// AssetStore owns the upload root
type AssetStore struct {
	fs   afero.Fs
	root string
}

// NewAssetStore returns a store rooted at root on fs
func NewAssetStore(fs afero.Fs, root string) *AssetStore {
	return &AssetStore{fs: fs, root: filepath.Clean(root)}
}

// NewOsAssetStore returns a store on the local disk
func NewOsAssetStore(root string) *AssetStore {
	return NewAssetStore(afero.NewOsFs(), root)
}

// NotificationDir is where the assets of one notification live
func (s *AssetStore) NotificationDir(notificationID string) string {
	return filepath.Join(s.root, notificationsDir, notificationID)
}

// RemoveNotificationAssets deletes <root>/notifications/<id>. A missing directory is not an error.
func (s *AssetStore) RemoveNotificationAssets(notificationID string) error {
	// only object ids, so the id can never climb out of the upload root
	if !primitive.IsValidObjectID(notificationID) {
		return fmt.Errorf("invalid notification id %q", notificationID)
	}

	dir := s.NotificationDir(notificationID)
	if _, err := s.fs.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if err := s.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}

	logger.WithModule("storage").WithField("dir", dir).Debug("Notification assets removed")
	return nil
}
