// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package testinfra starts Docker containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/store/...
//
// # MongoDB
//
// StartMongo runs a throwaway MongoDB server and terminates it on cleanup.
// Tests skip when no Docker daemon is available.
//
//	func TestMongoStore(t *testing.T) {
//	    mongo := testinfra.StartMongo(t)
//	    st, err := store.OpenMongo(ctx, store.MongoOptions{
//	        URI:      mongo.URI,
//	        Database: "playmetric_test",
//	    }, zerolog.Nop())
//	    // ...
//	}
package testinfra
