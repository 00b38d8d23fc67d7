// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEventType is returned when an EventRecord's type maps to no kind.
var ErrUnknownEventType = errors.New("unknown event type")

// GlobalParams are the fields every wire event carries.
type GlobalParams struct {
	UserID          string   `json:"userId" bson:"userId" validate:"userid"`
	SessionID       string   `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	SessionDuration int64    `json:"sessionDuration,omitempty" bson:"sessionDuration,omitempty" validate:"gte=0"` // milliseconds
	Platform        string   `json:"platform,omitempty" bson:"platform,omitempty"`
	Timestamp       FlexTime `json:"timestamp" bson:"timestamp"`
}

// EventRecord is the flat storage and import shape of an event. EventType
// accepts the canonical kind names as well as the legacy uppercase types
// (GAME_START, LEVEL_END, ECONOMY_TRANSACTION, AD_SHOWN, ...).
type EventRecord struct {
	EventType    string       `json:"eventType" bson:"eventType" validate:"eventtype"`
	GlobalParams GlobalParams `json:"globalParams" bson:"globalParams"`

	LevelID           string  `json:"levelId,omitempty" bson:"levelId,omitempty"`
	LevelNumber       int     `json:"levelNumber,omitempty" bson:"levelNumber,omitempty" validate:"gte=0"`
	Completed         *bool   `json:"completed,omitempty" bson:"completed,omitempty"`
	LevelDuration     int64   `json:"levelDuration,omitempty" bson:"levelDuration,omitempty" validate:"gte=0"` // milliseconds
	Score             float64 `json:"score,omitempty" bson:"score,omitempty"`
	StarsEarned       int     `json:"starsEarned,omitempty" bson:"starsEarned,omitempty" validate:"gte=0,lte=5"`
	PerfectCompletion bool    `json:"perfectCompletion,omitempty" bson:"perfectCompletion,omitempty"`
	FailReason        string  `json:"failReason,omitempty" bson:"failReason,omitempty"`

	ItemID         string  `json:"itemId,omitempty" bson:"itemId,omitempty"`
	RealMoneyValue float64 `json:"realMoneyValue,omitempty" bson:"realMoneyValue,omitempty" validate:"gte=0"`
	CurrencyType   string  `json:"currencyType,omitempty" bson:"currencyType,omitempty"`
	Amount         float64 `json:"amount,omitempty" bson:"amount,omitempty"`

	AdType    string  `json:"adType,omitempty" bson:"adEventType,omitempty"`
	AdNetwork string  `json:"adNetwork,omitempty" bson:"adNetwork,omitempty"`
	Revenue   float64 `json:"revenue,omitempty" bson:"revenue,omitempty"`

	MissionID       string `json:"missionId,omitempty" bson:"missionId,omitempty"`
	MissionDuration int64  `json:"missionDuration,omitempty" bson:"duration,omitempty"`

	Element string `json:"element,omitempty" bson:"elementId,omitempty"`
	Action  string `json:"action,omitempty" bson:"interactionType,omitempty"`
}

// Decode converts the record into its Event variant.
func (r *EventRecord) Decode() (Event, error) {
	ev := Event{
		UserID:    r.GlobalParams.UserID,
		SessionID: r.GlobalParams.SessionID,
		Platform:  r.GlobalParams.Platform,
		Timestamp: r.GlobalParams.Timestamp.Time,
	}

	completed := r.Completed != nil && *r.Completed
	switch kind := strings.ToUpper(strings.TrimSpace(r.EventType)); kind {
	case "SESSION_START", "GAME_START":
		ev.Payload = SessionStart{}
	case "SESSION_END", "GAME_END":
		ev.Payload = SessionEnd{DurationMs: r.GlobalParams.SessionDuration}
	case "LEVEL_START":
		ev.Payload = LevelStart{LevelID: r.LevelID, LevelNumber: r.LevelNumber}
	case "LEVEL_COMPLETE":
		ev.Payload = r.levelComplete()
	case "LEVEL_FAIL", "LEVEL_FAILED":
		ev.Payload = r.levelFail()
	case "LEVEL_END":
		if completed {
			ev.Payload = r.levelComplete()
		} else {
			ev.Payload = r.levelFail()
		}
	case "PURCHASE", "ECONOMY_TRANSACTION":
		ev.Payload = Purchase{
			ItemID:         r.ItemID,
			RealMoneyValue: r.RealMoneyValue,
			CurrencyType:   r.CurrencyType,
			Amount:         r.Amount,
		}
	case "AD_IMPRESSION", "AD_LOADED", "AD_SHOWN", "AD_COMPLETED", "AD_CLOSED", "AD_REVENUE":
		ev.Payload = AdImpression{AdType: r.AdType, AdNetwork: r.AdNetwork, Revenue: r.Revenue}
	case "MISSION", "MISSION_START", "MISSION_END":
		ev.Payload = Mission{MissionID: r.MissionID, Completed: completed, DurationMs: r.MissionDuration}
	case "UI_INTERACTION":
		ev.Payload = UIInteraction{Element: r.Element, Action: r.Action}
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, r.EventType)
	}
	return ev, nil
}

func (r *EventRecord) levelComplete() LevelComplete {
	return LevelComplete{
		LevelID:     r.LevelID,
		LevelNumber: r.LevelNumber,
		DurationMs:  r.LevelDuration,
		Score:       r.Score,
		Stars:       r.StarsEarned,
		Perfect:     r.PerfectCompletion,
	}
}

func (r *EventRecord) levelFail() LevelFail {
	return LevelFail{
		LevelID:     r.LevelID,
		LevelNumber: r.LevelNumber,
		DurationMs:  r.LevelDuration,
		FailReason:  r.FailReason,
	}
}

// KnownEventType reports whether Decode accepts eventType.
func KnownEventType(eventType string) bool {
	r := EventRecord{EventType: eventType}
	_, err := r.Decode()
	return err == nil
}

// EncodeEvent converts an Event to its record form using canonical kind names.
func EncodeEvent(e Event) EventRecord {
	r := EventRecord{
		EventType: string(e.Kind()),
		GlobalParams: GlobalParams{
			UserID:    e.UserID,
			SessionID: e.SessionID,
			Platform:  e.Platform,
			Timestamp: FlexTime{Time: e.Timestamp},
		},
	}

	switch p := e.Payload.(type) {
	case SessionEnd:
		r.GlobalParams.SessionDuration = p.DurationMs
	case LevelStart:
		r.LevelID, r.LevelNumber = p.LevelID, p.LevelNumber
	case LevelComplete:
		done := true
		r.LevelID, r.LevelNumber, r.Completed = p.LevelID, p.LevelNumber, &done
		r.LevelDuration, r.Score, r.StarsEarned, r.PerfectCompletion = p.DurationMs, p.Score, p.Stars, p.Perfect
	case LevelFail:
		done := false
		r.LevelID, r.LevelNumber, r.Completed = p.LevelID, p.LevelNumber, &done
		r.LevelDuration, r.FailReason = p.DurationMs, p.FailReason
	case Purchase:
		r.ItemID, r.RealMoneyValue, r.CurrencyType, r.Amount = p.ItemID, p.RealMoneyValue, p.CurrencyType, p.Amount
	case AdImpression:
		r.AdType, r.AdNetwork, r.Revenue = p.AdType, p.AdNetwork, p.Revenue
	case Mission:
		done := p.Completed
		r.MissionID, r.Completed, r.MissionDuration = p.MissionID, &done, p.DurationMs
	case UIInteraction:
		r.Element, r.Action = p.Element, p.Action
	}
	return r
}
