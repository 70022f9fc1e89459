// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

// Command migrate applies pending schema migrations and exits. Deployments
// usually let the service migrate itself at startup (POSTGRES__MIGRATE=true);
// this is the manual escape hatch for operators.
package main

import (
	"log"

	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to read configuration: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("failed to parse configuration: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name+"-migrate"),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	postgres, err := connectors.NewPostgresConnector(cfg.PostgresConfig, logger)
	if err != nil {
		logger.Fatalf("failed to connect postgres: %v", err)
	}
	defer postgres.Close()

	if err := postgres.Migrate(); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}
	logger.Info("migrations complete")
}
