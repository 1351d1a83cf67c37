package global

import (
	"tamil_society/config"
	"tamil_society/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionNames holds the MongoDB collection names used by the service
type CollectionNames struct {
	Users         string // Platform users (owned by the identity service, read-only here)
	Notifications string // One document per resolved recipient
	DeliveryLogs  string // Per-recipient email outcomes
}

var Validate *validator.Validate               // Shared validator instance
var MongoDB_Session *mongo.Client              // MongoDB client
var MongoDB_ServerConfig *config.Configuration // Server configuration
var MongoDB_ColNames CollectionNames           // Collection names

// Registries
var RegistryCollections = registry.NewRegistry[*mongo.Collection]()
