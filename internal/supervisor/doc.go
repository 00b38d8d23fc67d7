// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

/*
Package supervisor runs PlayMetric's long-lived components under a suture v4
supervisor tree.

	playmetric (root)
	├── data-layer
	│   ├── import            optional JSON batch loaded at startup
	│   └── churn-bootstrap   loads or trains the churn model once
	└── api-layer
	    └── http-server

Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from the logging package. Services live in the services
subpackage and implement suture.Service plus fmt.Stringer.
*/
package supervisor
