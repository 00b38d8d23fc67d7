// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

/*
Package config loads PlayMetric configuration with Koanf v2.

Sources are layered, later ones winning:

 1. Built-in defaults
 2. YAML file: $CONFIG_PATH, config.yaml, config.yml or /etc/playmetric/config.yaml
 3. Environment variables

Only the environment variables listed in envMappings are read; anything
else in the environment is ignored.

Common variables:

	HTTP_PORT                 server.port (default 8080)
	STORE_BACKEND             store.backend: badger or mongo
	BADGER_PATH               store.badger_path
	MONGODB_URI               store.mongo_uri
	MONGODB_DB                store.mongo_database
	IMPORT_PATH               store.import_path, JSON batch loaded at startup
	CHURN_TRAIN_ON_STARTUP    train the churn model when no artifact is stored
	CORS_ORIGINS              comma-separated list
	LOG_LEVEL, LOG_FORMAT     logging

Example config.yaml:

	server:
	  port: 8080
	store:
	  backend: mongo
	  mongo_uri: mongodb://mongo:27017
	  mongo_database: gameanalytics
	churn:
	  train_on_startup: true
	  trees: 50
*/
package config
