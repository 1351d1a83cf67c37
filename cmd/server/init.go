package main

import (
	"context"
	"time"

	"tamil_society/internal/bootstrap"
	"tamil_society/internal/global"

	"github.com/sirupsen/logrus"
)

// InitGlobal sets collection names, validator, config and the database connection
func InitGlobal() {
	initColNames()
	initValidator()
	initConfig()
	initDatabase_MongoDB()
}

func initColNames() {
	bootstrap.InitColNames()
	logrus.Info("Initialized collection names")
}

// initValidator registers the custom rules (bilingual, notif_type, lang, ...)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

func initConfig() {
	if _, err := bootstrap.InitConfig(); err != nil {
		logrus.Fatalf("Failed to initialize config: %v", err)
	}
	logrus.Info("Initialized server config")
}

func initDatabase_MongoDB() {
	cfg := global.MongoDB_ServerConfig
	client, err := bootstrap.InitDatabase(cfg)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := bootstrap.EnsureSchema(ctx, client.Database(cfg.MongoDB_DBName)); err != nil {
		logrus.Fatalf("Failed to ensure collections and indexes: %v", err)
	}
}
