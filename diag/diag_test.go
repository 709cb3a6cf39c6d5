// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestRingWrapsAtCapacity(t *testing.T) {
	ring := NewRing(3)
	log := NewLogger(&bytes.Buffer{}, ring, slog.LevelDebug)
	for i := 0; i < 5; i++ {
		log.Info("tick", "i", i)
	}
	entries := ring.Entries()
	if len(entries) != 3 {
		t.Fatalf("len(Entries()) = %d, want 3", len(entries))
	}
	if entries[0].Attrs["i"] != int64(2) && entries[0].Attrs["i"] != 2 {
		t.Fatalf("oldest retained entry i = %v, want 2", entries[0].Attrs["i"])
	}
}

func TestRingFansOutToWriter(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRing(8)
	log := NewLogger(&buf, ring, slog.LevelDebug)
	log.Warn("undefined symbol", "name", "frobnicate")

	if buf.Len() == 0 {
		t.Fatalf("expected the text handler to also receive the record")
	}
	entries := ring.Entries()
	if len(entries) != 1 || entries[0].Message != "undefined symbol" {
		t.Fatalf("ring entries = %+v, want one 'undefined symbol' entry", entries)
	}
}
