// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package gorm_generator

import (
	"os"
	"sync"
	"time"
)

// Snowflake-style ids: 41 bits of milliseconds since epoch, 10 bits of node
// (derived from pid), 12 bits of per-millisecond sequence. Sortable by
// creation time and safe across the processes of one deployment.
const (
	epochMs = int64(1704067200000) // 2024-01-01T00:00:00Z

	nodeBits     = 10
	sequenceBits = 12

	nodeMask      = uint64(1)<<nodeBits - 1
	sequenceMask  = uint64(1)<<sequenceBits - 1
	timestampSift = nodeBits + sequenceBits
)

var (
	mu       sync.Mutex
	node     = uint64(os.Getpid()) & nodeMask
	lastMs   int64
	sequence uint64
)

// ID returns the next unique identifier.
func ID() uint64 {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UnixMilli()
	if now == lastMs {
		sequence = (sequence + 1) & sequenceMask
		if sequence == 0 {
			// Sequence exhausted for this millisecond; spin to the next.
			for now <= lastMs {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		sequence = 0
	}
	lastMs = now

	return uint64(now-epochMs)<<timestampSift | node<<sequenceBits | sequence
}
