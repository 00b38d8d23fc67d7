// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// FlexTime is a timestamp that decodes from any of the representations the
// telemetry sources emit. Unparseable input yields the zero time, never an error.
type FlexTime struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses ISO-8601 (with or without zone, naive values are UTC)
// or epoch milliseconds. Returns the zero time on failure.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		t.Time = time.Time{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			t.Time = time.Time{}
			return nil
		}
		t.Time = ParseTimestamp(s)
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil {
			t.Time = time.UnixMilli(int64(f)).UTC()
		} else {
			t.Time = time.Time{}
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. The zero time encodes as null.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (t FlexTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t.IsZero() {
		return bson.MarshalValue(nil)
	}
	return bson.MarshalValue(t.UTC())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (t *FlexTime) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: bt, Value: data}
	if dt, ok := raw.TimeOK(); ok {
		t.Time = dt.UTC()
		return nil
	}
	if s, ok := raw.StringValueOK(); ok {
		t.Time = ParseTimestamp(s)
		return nil
	}
	if ms, ok := raw.Int64OK(); ok {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	t.Time = time.Time{}
	return nil
}
