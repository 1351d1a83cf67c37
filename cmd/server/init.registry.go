package main

import (
	"tamil_society/internal/bootstrap"
	"tamil_society/internal/global"

	"github.com/sirupsen/logrus"
)

// InitRegistry registers the collections used by the services
func InitRegistry() {
	db := global.MongoDB_Session.Database(global.MongoDB_ServerConfig.MongoDB_DBName)
	if err := bootstrap.InitRegistry(db); err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
}
