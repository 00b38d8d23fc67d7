// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/goccy/go-json"
)

// Fingerprint hashes a collection of JSON-encodable items independently of
// their order: each item is hashed, the digests are sorted, and the sorted
// list is hashed together with the item count. Items that fail to encode
// contribute an empty digest.
func Fingerprint[T any](items []T) string {
	digests := make([][sha256.Size]byte, len(items))
	for i := range items {
		data, err := json.Marshal(items[i])
		if err != nil {
			continue
		}
		digests[i] = sha256.Sum256(data)
	}
	sort.Slice(digests, func(a, b int) bool {
		return bytes.Compare(digests[a][:], digests[b][:]) < 0
	})

	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(items)))
	h.Write(n[:])
	for i := range digests {
		h.Write(digests[i][:])
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
