// Package bootstrap wires configuration, MongoDB and the notification components.
// Shared by the API server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"tamil_society/config"
	authmodels "tamil_society/internal/api/auth/models"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/database"
	"tamil_society/internal/global"
	"tamil_society/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// InitColNames sets the collection names
func InitColNames() {
	global.MongoDB_ColNames.Users = "auth_users"
	global.MongoDB_ColNames.Notifications = "notifications"
	global.MongoDB_ColNames.DeliveryLogs = "notification_delivery_logs"
}

// collectionModels pairs each collection with the model carrying its index tags
func collectionModels() map[string]interface{} {
	return map[string]interface{}{
		global.MongoDB_ColNames.Users:         authmodels.User{},
		global.MongoDB_ColNames.Notifications: notifmodels.Notification{},
		global.MongoDB_ColNames.DeliveryLogs:  notifmodels.DeliveryLog{},
	}
}

// InitConfig loads the configuration into global.MongoDB_ServerConfig
func InitConfig() (*config.Configuration, error) {
	cfg := config.NewConfig()
	if cfg == nil {
		return nil, fmt.Errorf("failed to initialize config: config is nil")
	}
	global.MongoDB_ServerConfig = cfg
	return cfg, nil
}

// InitDatabase connects to MongoDB and stores the client in global.MongoDB_Session
func InitDatabase(cfg *config.Configuration) (*mongo.Client, error) {
	client, err := database.GetInstance(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	global.MongoDB_Session = client
	return client, nil
}

// InitRegistry registers every collection in global.RegistryCollections
func InitRegistry(db *mongo.Database) error {
	log := logger.GetAppLogger()
	for name := range collectionModels() {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			return fmt.Errorf("failed to register collection %s: %w", name, err)
		}
		if registered {
			log.Debugf("Collection %s registered", name)
		}
	}
	log.WithField("collections", global.RegistryCollections.Names()).Info("Initialized collection registry")
	return nil
}

// EnsureSchema creates missing collections and the indexes declared on the models.
// The users collection belongs to the identity service, so its index failures are logged only.
func EnsureSchema(ctx context.Context, db *mongo.Database) error {
	models := collectionModels()

	names := []string{global.MongoDB_ColNames.Notifications, global.MongoDB_ColNames.DeliveryLogs}
	if err := database.EnsureCollections(ctx, db, names); err != nil {
		return err
	}

	log := logger.GetAppLogger()
	for name, model := range models {
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := database.CreateIndexes(indexCtx, db.Collection(name), model)
		cancel()
		if err == nil {
			continue
		}
		if name == global.MongoDB_ColNames.Users {
			log.WithError(err).Warnf("Could not create indexes on %s", name)
			continue
		}
		return fmt.Errorf("failed to create indexes on %s: %w", name, err)
	}
	log.Info("Ensured collections and indexes")
	return nil
}
