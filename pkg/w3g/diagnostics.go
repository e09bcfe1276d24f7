package w3g

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
)

// Diagnostics receives events from the decoder. Implementations must not
// influence decoding; every method is informational.
type Diagnostics interface {
	// BlockInflated reports a block that was inflated and appended.
	BlockInflated(index, compressed, inflated int)
	// BlockFailed reports the block that ended the block list early.
	BlockFailed(index int, err error)
	// RecordSeen reports a top-level record tag that was processed.
	RecordSeen(tag uint8, offset int)
	// ActionSeen reports an action opcode inside an action block.
	ActionSeen(opcode uint8, playerID uint8)
	// UnknownAction reports an opcode whose size is unknown; skipped bytes
	// to the end of the action block were dropped.
	UnknownAction(opcode uint8, offset, skipped int)
	// LengthMismatch reports a time slice whose consumed size differs from
	// its declared size.
	LengthMismatch(offset, consumed, declared int)
	// StreamEnd reports how the record loop stopped.
	StreamEnd(tag uint8, offset int, eof bool)
}

// NopDiagnostics discards every event.
type NopDiagnostics struct{}

func (NopDiagnostics) BlockInflated(int, int, int)   {}
func (NopDiagnostics) BlockFailed(int, error)        {}
func (NopDiagnostics) RecordSeen(uint8, int)         {}
func (NopDiagnostics) ActionSeen(uint8, uint8)       {}
func (NopDiagnostics) UnknownAction(uint8, int, int) {}
func (NopDiagnostics) LengthMismatch(int, int, int)  {}
func (NopDiagnostics) StreamEnd(uint8, int, bool)    {}

// Counters tallies records, actions and anomalies. It is not safe for
// concurrent use by multiple decodes.
type Counters struct {
	Blocks         int
	FailedBlocks   int
	Records        map[uint8]int
	Actions        map[uint8]int
	UnknownActions map[uint8]int
	Mismatches     int
}

// NewCounters returns empty counters.
func NewCounters() *Counters {
	return &Counters{
		Records:        make(map[uint8]int),
		Actions:        make(map[uint8]int),
		UnknownActions: make(map[uint8]int),
	}
}

func (c *Counters) BlockInflated(int, int, int)      { c.Blocks++ }
func (c *Counters) BlockFailed(int, error)           { c.FailedBlocks++ }
func (c *Counters) RecordSeen(tag uint8, _ int)      { c.Records[tag]++ }
func (c *Counters) ActionSeen(op uint8, _ uint8)     { c.Actions[op]++ }
func (c *Counters) UnknownAction(op uint8, _, _ int) { c.UnknownActions[op]++ }
func (c *Counters) LengthMismatch(int, int, int)     { c.Mismatches++ }
func (c *Counters) StreamEnd(uint8, int, bool)       {}

// TagCount is one entry of a sorted tally.
type TagCount struct {
	Tag   uint8
	Count int
}

// Sorted returns the entries of m ordered by tag.
func Sorted(m map[uint8]int) []TagCount {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]TagCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, TagCount{Tag: k, Count: m[k]})
	}
	return out
}

// LogDiagnostics logs events through zerolog and keeps Counters.
type LogDiagnostics struct {
	*Counters
	log zerolog.Logger
}

// NewLogDiagnostics returns a sink logging to l.
func NewLogDiagnostics(l zerolog.Logger) *LogDiagnostics {
	return &LogDiagnostics{Counters: NewCounters(), log: l}
}

func (d *LogDiagnostics) BlockInflated(index, compressed, inflated int) {
	d.Counters.BlockInflated(index, compressed, inflated)
	d.log.Trace().Int("block", index).Int("compressed", compressed).Int("inflated", inflated).Msg("block inflated")
}

func (d *LogDiagnostics) BlockFailed(index int, err error) {
	d.Counters.BlockFailed(index, err)
	d.log.Warn().Int("block", index).Err(err).Msg("block list ended early")
}

func (d *LogDiagnostics) RecordSeen(tag uint8, offset int) {
	d.Counters.RecordSeen(tag, offset)
}

func (d *LogDiagnostics) ActionSeen(op uint8, playerID uint8) {
	d.Counters.ActionSeen(op, playerID)
}

func (d *LogDiagnostics) UnknownAction(op uint8, offset, skipped int) {
	d.Counters.UnknownAction(op, offset, skipped)
	d.log.Warn().Hex("opcode", []byte{op}).Int("offset", offset).Int("skipped", skipped).Msg("unknown action id")
}

func (d *LogDiagnostics) LengthMismatch(offset, consumed, declared int) {
	d.Counters.LengthMismatch(offset, consumed, declared)
	d.log.Warn().Int("offset", offset).Int("consumed", consumed).Int("declared", declared).Msg("time slice length mismatch")
}

func (d *LogDiagnostics) StreamEnd(tag uint8, offset int, eof bool) {
	ev := d.log.Debug().Int("offset", offset).Bool("eof", eof)
	if !eof {
		ev = ev.Hex("tag", []byte{tag})
	}
	ev.Msg("replay data ended")
}

// Summary logs the per-tag tallies at debug level.
func (d *LogDiagnostics) Summary() {
	records := zerolog.Dict()
	for _, tc := range Sorted(d.Records) {
		records.Int(hexTag(tc.Tag), tc.Count)
	}
	actions := zerolog.Dict()
	for _, tc := range Sorted(d.Actions) {
		actions.Int(hexTag(tc.Tag), tc.Count)
	}
	d.log.Debug().
		Int("blocks", d.Blocks).
		Int("failed_blocks", d.FailedBlocks).
		Int("mismatches", d.Mismatches).
		Dict("records", records).
		Dict("actions", actions).
		Msg("decode summary")
}

func hexTag(tag uint8) string {
	return fmt.Sprintf("0x%02x", tag)
}
