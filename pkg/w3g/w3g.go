// Package w3g decodes Warcraft III replay (.w3g) files.
//
// Decoding runs in four steps over an in-memory buffer: the block container
// is inflated into one stream, the lobby (session player, game settings,
// player list, slots) is read from its prefix, the replay data records are
// walked to collect chat, leaves and actions, and the pieces are assembled
// into a Replay.
//
// Basic usage:
//
//	parser := w3g.NewParser()
//	replay, err := parser.Parse("my_replay.w3g")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Game: %s\n", replay.Metadata.GameName)
//	fmt.Printf("Map: %s\n", replay.Metadata.MapName)
//
//	for _, id := range replay.PlayerIDs() {
//	    p := replay.Players[id]
//	    fmt.Printf("  %s left: %s\n", p.BattleTag, p.LeaveReason)
//	}
package w3g

import "fmt"

// Parse is a convenience function to parse a replay file.
func Parse(filepath string) (*Replay, error) {
	return NewParser().Parse(filepath)
}

// Decode is a convenience function to decode a replay held in memory.
func Decode(data []byte) (*Replay, error) {
	return NewParser().ParseBytes(data)
}

// ParseHeaderOnly is a convenience function to parse just the header.
func ParseHeaderOnly(filepath string) (*ReplayHeader, error) {
	return NewParser().ParseHeaderOnly(filepath)
}

// FormatDuration formats milliseconds as H:MM:SS or M:SS.
func FormatDuration(ms uint64) string {
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
