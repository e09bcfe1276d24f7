package w3g

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// ReplayHeader contains W3G file header information.
type ReplayHeader struct {
	Magic               []byte `json:"-"`
	HeaderSize          uint32 `json:"header_size"`
	CompressedSize      uint32 `json:"compressed_size"`
	HeaderVersion       uint8  `json:"header_version"`
	DecompressedSize    uint32 `json:"decompressed_size"`
	NumCompressedBlocks uint32 `json:"num_compressed_blocks"`

	// SubHeader fields
	GameIdentifier string `json:"game_identifier"`
	Version        uint32 `json:"version"`
	BuildNumber    uint16 `json:"build_number"`
	Flags          uint16 `json:"flags"`
	DurationMs     uint32 `json:"duration_ms"`
	CRC32          uint32 `json:"crc32"`
}

// Duration returns replay duration as time.Duration.
func (h *ReplayHeader) Duration() time.Duration {
	return time.Duration(h.DurationMs) * time.Millisecond
}

// HasMagic reports whether the file starts with the W3G magic string.
func (h *ReplayHeader) HasMagic() bool {
	return bytes.Equal(h.Magic, MagicString)
}

// IsMultiplayer returns true if replay is from multiplayer game.
func (h *ReplayHeader) IsMultiplayer() bool {
	return h.Flags&FlagMultiplayer != 0
}

// IsReforged returns true if this is a Reforged replay.
func (h *ReplayHeader) IsReforged() bool {
	return h.HeaderVersion != 0 && h.Version >= ReforgedVersionThreshold && h.Version < 10000
}

// IsExpansion returns true if this is Frozen Throne or Reforged.
func (h *ReplayHeader) IsExpansion() bool {
	return h.GameIdentifier == GameIDTFT
}

// VersionString returns human-readable version string.
func (h *ReplayHeader) VersionString() string {
	if h.IsReforged() {
		return fmt.Sprintf("1.%d (build %d)", h.Version, h.BuildNumber)
	}
	if h.Version >= 10000 {
		major := h.Version / 10000
		minor := (h.Version % 10000) / 100
		patch := h.Version % 100
		if patch > 0 {
			return fmt.Sprintf("%d.%d.%d", major, minor, patch)
		}
		return fmt.Sprintf("%d.%d", major, minor)
	}
	return fmt.Sprintf("1.%02d", h.Version)
}

// headerLength returns the total header length selected by the version byte.
// Unrecognized versions use the larger layout.
func headerLength(version uint8) int {
	if version == 0 {
		return HeaderV0Total
	}
	return HeaderV1Total
}

// parseHeader parses the file header at the start of c.
//
// Base header (0x30 bytes):
//   - Offset 0x00: magic string (28 bytes)
//   - Offset 0x1C: first data block offset (header size)
//   - Offset 0x20: compressed file size
//   - Offset 0x24: header version (0 or 1)
//   - Offset 0x28: decompressed data size
//   - Offset 0x2C: number of compressed blocks
//
// Sub-header for version 0 (0x10 bytes): unknown word, version word, build word,
// flags word, duration dword, CRC dword. Version 1 (0x14 bytes): game identifier
// (stored reversed), version dword, build word, flags word, duration dword, CRC dword.
func parseHeader(c *cursor) (*ReplayHeader, error) {
	c.stage = StageHeader

	base, err := c.Bytes(BaseHeaderSize, "read base header")
	if err != nil {
		return nil, err
	}

	version := base[offsetHeaderVersion]
	total := headerLength(version)
	sub, err := c.Bytes(total-BaseHeaderSize, "read sub-header")
	if err != nil {
		return nil, err
	}

	header := &ReplayHeader{
		Magic:               base[:28],
		HeaderSize:          binary.LittleEndian.Uint32(base[0x1C:]),
		CompressedSize:      binary.LittleEndian.Uint32(base[0x20:]),
		HeaderVersion:       version,
		DecompressedSize:    binary.LittleEndian.Uint32(base[0x28:]),
		NumCompressedBlocks: binary.LittleEndian.Uint32(base[offsetBlockCount:]),
	}

	if version == 0 {
		header.Version = uint32(binary.LittleEndian.Uint16(sub[0x02:]))
		header.BuildNumber = binary.LittleEndian.Uint16(sub[0x04:])
		header.Flags = binary.LittleEndian.Uint16(sub[0x06:])
		header.DurationMs = binary.LittleEndian.Uint32(sub[0x08:])
		header.CRC32 = binary.LittleEndian.Uint32(sub[0x0C:])
		header.GameIdentifier = GameIDClassic
	} else {
		header.GameIdentifier = reverseString(string(sub[0x00:0x04]))
		header.Version = binary.LittleEndian.Uint32(sub[0x04:])
		header.BuildNumber = binary.LittleEndian.Uint16(sub[0x08:])
		header.Flags = binary.LittleEndian.Uint16(sub[0x0A:])
		header.DurationMs = binary.LittleEndian.Uint32(sub[0x0C:])
		header.CRC32 = binary.LittleEndian.Uint32(sub[0x10:])
	}

	return header, nil
}

// parseHeaderFromBytes parses header from bytes.
func parseHeaderFromBytes(data []byte) (*ReplayHeader, error) {
	return parseHeader(newCursor(data, StageHeader))
}
