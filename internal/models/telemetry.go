// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// UserProfile is the per-player profile. Invariant: FirstSeen <= LastSeen.
type UserProfile struct {
	UserID        string    `json:"user_id" validate:"userid"`
	DeviceID      string    `json:"device_id,omitempty"`
	DeviceModel   string    `json:"device_model,omitempty"`
	OSVersion     string    `json:"os_version,omitempty"`
	Platform      string    `json:"platform,omitempty" validate:"max=64"`
	AppVersion    string    `json:"app_version,omitempty"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	TotalSessions int       `json:"total_sessions" validate:"gte=0"`
	TotalEvents   int       `json:"total_events" validate:"gte=0"`
}

// userProfileJSON accepts both snake_case and the camelCase names used by the
// original collections, with tolerant timestamps.
type userProfileJSON struct {
	UserID         string   `json:"user_id"`
	UserIDAlt      string   `json:"userId"`
	DeviceID       string   `json:"device_id"`
	DeviceIDAlt    string   `json:"deviceId"`
	DeviceModel    string   `json:"device_model"`
	DeviceModelAlt string   `json:"deviceModel"`
	OSVersion      string   `json:"os_version"`
	OSVersionAlt   string   `json:"osVersion"`
	Platform       string   `json:"platform"`
	AppVersion     string   `json:"app_version"`
	AppVersionAlt  string   `json:"appVersion"`
	FirstSeen      FlexTime `json:"first_seen"`
	FirstSeenAlt   FlexTime `json:"firstSeen"`
	LastSeen       FlexTime `json:"last_seen"`
	LastSeenAlt    FlexTime `json:"lastSeen"`
	TotalSessions  *int     `json:"total_sessions"`
	SessionsAlt    int      `json:"totalSessions"`
	TotalEvents    *int     `json:"total_events"`
	EventsAlt      int      `json:"totalEvents"`
}

// UnmarshalJSON decodes a profile. Malformed timestamps become the zero time.
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	var raw userProfileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UserProfile{
		UserID:      firstNonEmpty(raw.UserID, raw.UserIDAlt),
		DeviceID:    firstNonEmpty(raw.DeviceID, raw.DeviceIDAlt),
		DeviceModel: firstNonEmpty(raw.DeviceModel, raw.DeviceModelAlt),
		OSVersion:   firstNonEmpty(raw.OSVersion, raw.OSVersionAlt),
		Platform:    raw.Platform,
		AppVersion:  firstNonEmpty(raw.AppVersion, raw.AppVersionAlt),
		FirstSeen:   raw.FirstSeen.Time,
		LastSeen:    raw.LastSeen.Time,
	}
	if u.FirstSeen.IsZero() {
		u.FirstSeen = raw.FirstSeenAlt.Time
	}
	if u.LastSeen.IsZero() {
		u.LastSeen = raw.LastSeenAlt.Time
	}
	u.TotalSessions = raw.SessionsAlt
	if raw.TotalSessions != nil {
		u.TotalSessions = *raw.TotalSessions
	}
	u.TotalEvents = raw.EventsAlt
	if raw.TotalEvents != nil {
		u.TotalEvents = *raw.TotalEvents
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// EventKind identifies an Event variant.
type EventKind string

const (
	KindSessionStart  EventKind = "session_start"
	KindSessionEnd    EventKind = "session_end"
	KindLevelStart    EventKind = "level_start"
	KindLevelComplete EventKind = "level_complete"
	KindLevelFail     EventKind = "level_fail"
	KindPurchase      EventKind = "purchase"
	KindAdImpression  EventKind = "ad_impression"
	KindMission       EventKind = "mission"
	KindUIInteraction EventKind = "ui_interaction"
)

// AllEventKinds lists every kind in a stable order.
var AllEventKinds = []EventKind{
	KindSessionStart, KindSessionEnd,
	KindLevelStart, KindLevelComplete, KindLevelFail,
	KindPurchase, KindAdImpression, KindMission, KindUIInteraction,
}

// Event is one immutable telemetry event. The kind-specific fields live in
// Payload, which is always one of the payload structs in this file.
type Event struct {
	UserID    string
	SessionID string
	Platform  string
	Timestamp time.Time // zero when the source timestamp was missing or malformed
	Payload   Payload
}

// Kind returns the payload's kind, or "" for an event without payload.
func (e Event) Kind() EventKind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// TimeOr returns the event timestamp, or fallback when it is unknown.
func (e Event) TimeOr(fallback time.Time) time.Time {
	if e.Timestamp.IsZero() {
		return fallback
	}
	return e.Timestamp
}

// MarshalJSON encodes the event in its wire form.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeEvent(e))
}

// UnmarshalJSON decodes the wire form.
func (e *Event) UnmarshalJSON(data []byte) error {
	var rec EventRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	ev, err := rec.Decode()
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// Payload is the closed set of per-kind event bodies.
type Payload interface {
	Kind() EventKind
	payload()
}

type SessionStart struct{}

type SessionEnd struct {
	DurationMs int64 // session length reported at session end
}

type LevelStart struct {
	LevelID     string
	LevelNumber int
}

type LevelComplete struct {
	LevelID     string
	LevelNumber int
	DurationMs  int64
	Score       float64
	Stars       int
	Perfect     bool
}

type LevelFail struct {
	LevelID     string
	LevelNumber int
	DurationMs  int64
	FailReason  string
}

type Purchase struct {
	ItemID         string
	RealMoneyValue float64 // 0 for virtual-currency only transactions
	CurrencyType   string
	Amount         float64 // virtual currency amount
}

type AdImpression struct {
	AdType    string
	AdNetwork string
	Revenue   float64
}

type Mission struct {
	MissionID  string
	Completed  bool
	DurationMs int64
}

type UIInteraction struct {
	Element string
	Action  string
}

func (SessionStart) Kind() EventKind  { return KindSessionStart }
func (SessionEnd) Kind() EventKind    { return KindSessionEnd }
func (LevelStart) Kind() EventKind    { return KindLevelStart }
func (LevelComplete) Kind() EventKind { return KindLevelComplete }
func (LevelFail) Kind() EventKind     { return KindLevelFail }
func (Purchase) Kind() EventKind      { return KindPurchase }
func (AdImpression) Kind() EventKind  { return KindAdImpression }
func (Mission) Kind() EventKind       { return KindMission }
func (UIInteraction) Kind() EventKind { return KindUIInteraction }

func (SessionStart) payload()  {}
func (SessionEnd) payload()    {}
func (LevelStart) payload()    {}
func (LevelComplete) payload() {}
func (LevelFail) payload()     {}
func (Purchase) payload()      {}
func (AdImpression) payload()  {}
func (Mission) payload()       {}
func (UIInteraction) payload() {}

// LevelRef returns the level identity of a level event.
func LevelRef(e Event) (levelID string, levelNumber int, ok bool) {
	switch p := e.Payload.(type) {
	case LevelStart:
		return p.LevelID, p.LevelNumber, true
	case LevelComplete:
		return p.LevelID, p.LevelNumber, true
	case LevelFail:
		return p.LevelID, p.LevelNumber, true
	}
	return "", 0, false
}

// Snapshot is the batch of records one analysis call works on.
type Snapshot struct {
	Users  []UserProfile
	Events []Event
}

// EventsByUser groups events by user ID.
func (s Snapshot) EventsByUser() map[string][]Event {
	out := make(map[string][]Event, len(s.Users))
	for _, e := range s.Events {
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out
}

// EventCounts counts events per kind; every kind is present.
func (s Snapshot) EventCounts() map[EventKind]int {
	out := make(map[EventKind]int, len(AllEventKinds))
	for _, k := range AllEventKinds {
		out[k] = 0
	}
	for _, e := range s.Events {
		if k := e.Kind(); k != "" {
			out[k]++
		}
	}
	return out
}
