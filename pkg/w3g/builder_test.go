package w3g

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// wbuf assembles little-endian test fixtures.
type wbuf struct {
	bytes.Buffer
}

func (b *wbuf) u8(v ...uint8) *wbuf {
	b.Write(v)
	return b
}

func (b *wbuf) u16(v uint16) *wbuf {
	b.Write(binary.LittleEndian.AppendUint16(nil, v))
	return b
}

func (b *wbuf) u32(v uint32) *wbuf {
	b.Write(binary.LittleEndian.AppendUint32(nil, v))
	return b
}

func (b *wbuf) f32(v float32) *wbuf {
	return b.u32(math.Float32bits(v))
}

func (b *wbuf) str(s string) *wbuf {
	b.WriteString(s)
	return b
}

func (b *wbuf) cstr(s string) *wbuf {
	b.WriteString(s)
	b.WriteByte(0)
	return b
}

func (b *wbuf) raw(p []byte) *wbuf {
	b.Write(p)
	return b
}

// encodeSettings is the inverse of decodeGameSettings. Every byte is stored
// incremented with its mask bit clear, except 0xFF which is stored as-is with
// the mask bit set. Bit 0 of each mask is set so no mask byte is zero.
func encodeSettings(dec []byte) []byte {
	var out []byte
	for len(dec) > 0 {
		n := 7
		if len(dec) < n {
			n = len(dec)
		}
		mask := byte(1)
		group := make([]byte, 0, n)
		for i, b := range dec[:n] {
			if b == 0xFF {
				mask |= 1 << (i + 1)
				group = append(group, b)
			} else {
				group = append(group, b+1)
			}
		}
		out = append(out, mask)
		out = append(out, group...)
		dec = dec[n:]
	}
	return out
}

// settingsBlob builds a decoded settings blob: 13 fixed bytes followed by the
// map and creator names.
func settingsBlob(fixed [13]byte, mapName, creator string) []byte {
	var b wbuf
	b.raw(fixed[:]).cstr(mapName).cstr(creator)
	return b.Bytes()
}

type fixturePlayer struct {
	id   uint8
	name string
}

type fixtureSlot struct {
	playerID uint8
	team     uint8
	color    uint8
	race     uint8
}

// replayFixture describes a synthetic replay.
type replayFixture struct {
	host       fixturePlayer
	others     []fixturePlayer
	gameName   string
	settings   []byte
	metadata   [][]byte
	startTag   uint8
	slots      []fixtureSlot
	records    []byte
	durationMs uint32
}

func defaultFixture() *replayFixture {
	var fixed [13]byte
	fixed[0] = 0x02       // fast
	fixed[1] = 0b01001000 // default visibility, teams together
	fixed[2] = 0b00000110 // fixed teams = 3
	fixed[3] = 0b01000001 // shared control, referees
	return &replayFixture{
		host:     fixturePlayer{id: 1, name: "Alice"},
		others:   []fixturePlayer{{id: 2, name: "Bob"}},
		gameName: "Local Game",
		settings: settingsBlob(fixed, "Maps\\test.w3x", "Alice"),
		startTag: RecordGameStart,
		slots: []fixtureSlot{
			{playerID: 1, team: 0, color: 0, race: 0x01},
			{playerID: 2, team: 1, color: 1, race: 0x20},
		},
		durationMs: 120000,
	}
}

// stream returns the decompressed stream.
func (f *replayFixture) stream() []byte {
	var b wbuf

	b.u8(0x00, f.host.id).u32(0).cstr(f.host.name).u8(1, 0)
	b.cstr(f.gameName).u8(0)
	b.raw(encodeSettings(f.settings)).u8(0)
	b.u32(24).u8(0x01, 0x00).u16(0).u32(0)

	for _, p := range f.others {
		b.u8(RecordAdditionalPlayer, p.id).cstr(p.name).u8(1, 0)
	}
	for _, m := range f.metadata {
		b.u8(RecordPlayerMetadata, 0x03).u32(uint32(len(m))).raw(m)
	}
	b.u8(f.startTag)

	b.u16(uint16(1 + len(f.slots)*slotRecordSize + 6)).u8(uint8(len(f.slots)))
	for _, s := range f.slots {
		b.u8(s.playerID, 100, uint8(SlotOccupied), 0, s.team, s.color, s.race, 1, 100)
	}
	b.u32(0xDEADBEEF).u8(3, uint8(len(f.slots)))

	b.raw(f.records)
	return b.Bytes()
}

// file wraps the stream into a replay file with blocks of at most blockSize
// inflated bytes.
func (f *replayFixture) file(t *testing.T, blockSize int) []byte {
	t.Helper()
	return buildFile(t, f.stream(), blockSize, f.durationMs)
}

func buildFile(t *testing.T, stream []byte, blockSize int, durationMs uint32) []byte {
	t.Helper()

	var blocks wbuf
	count := 0
	for off := 0; off < len(stream); off += blockSize {
		end := off + blockSize
		if end > len(stream) {
			end = len(stream)
		}
		blocks.raw(compressBlock(t, stream[off:end]))
		count++
	}

	var b wbuf
	b.raw(MagicString)
	b.u32(HeaderV1Total)
	b.u32(uint32(HeaderV1Total + blocks.Len()))
	b.u32(1)
	b.u32(uint32(len(stream)))
	b.u32(uint32(count))
	b.str("PX3W").u32(26).u16(6059).u16(FlagMultiplayer).u32(durationMs).u32(0)
	b.raw(blocks.Bytes())
	return b.Bytes()
}

// compressBlock frames one zlib block with valid checksums.
func compressBlock(t *testing.T, data []byte) []byte {
	t.Helper()

	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	var h [BlockHeaderSize]byte
	binary.LittleEndian.PutUint32(h[0:], uint32(z.Len()))
	binary.LittleEndian.PutUint32(h[4:], uint32(len(data)))
	binary.LittleEndian.PutUint16(h[8:], blockChecksum(h[:]))
	binary.LittleEndian.PutUint16(h[10:], blockChecksum(z.Bytes()))

	var b wbuf
	return b.raw(h[:]).raw(z.Bytes()).Bytes()
}

// timeSlot frames action blocks into a 0x1F record.
func timeSlot(increment uint16, blocks ...[]byte) []byte {
	var body wbuf
	for _, blk := range blocks {
		body.raw(blk)
	}
	var b wbuf
	b.u8(RecordTimeSlot).u16(uint16(2 + body.Len())).u16(increment).raw(body.Bytes())
	return b.Bytes()
}

// actionBlock frames actions for one player.
func actionBlock(playerID uint8, actions ...[]byte) []byte {
	var body wbuf
	for _, a := range actions {
		body.raw(a)
	}
	var b wbuf
	b.u8(playerID).u16(uint16(body.Len())).raw(body.Bytes())
	return b.Bytes()
}

// abilityAction builds a 0x10 action with a four byte wire item id.
func abilityAction(flags uint16, wireItem []byte) []byte {
	var b wbuf
	return b.u8(ActionAbilityNoParams).u16(flags).raw(wireItem).u32(0xFFFFFFFF).u32(0xFFFFFFFF).Bytes()
}

func leaveRecord(reason uint32, playerID uint8, result uint32) []byte {
	var b wbuf
	return b.u8(RecordLeaveGame).u32(reason).u8(playerID).u32(result).u32(0).Bytes()
}

func chatRecord(sender uint8, flag uint8, mode uint32, msg string) []byte {
	var b wbuf
	return b.u8(RecordChat, sender).u16(uint16(len(msg) + 6)).u8(flag).u32(mode).cstr(msg).Bytes()
}

func chatCommand(msg string) []byte {
	var b wbuf
	return b.u8(ActionTriggerCommand).u32(0).u32(0).cstr(msg).Bytes()
}

func concat(parts ...[]byte) []byte {
	var b wbuf
	for _, p := range parts {
		b.raw(p)
	}
	return b.Bytes()
}
