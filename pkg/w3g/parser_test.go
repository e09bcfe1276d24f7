package w3g

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleRecords() []byte {
	return concat(
		[]byte{RecordFirstStart, 0, 0, 0, 0},
		timeSlot(100,
			actionBlock(1,
				abilityAction(0x0040, []byte("aeph")),
				[]byte{0x01}, // pause
			),
		),
		chatRecord(2, 0x20, 0x00, "gl hf"),
		timeSlot(250,
			actionBlock(2,
				chatCommand("gl hf"),
				concat([]byte{ActionMinimapSignal}, new(wbuf).f32(1024).f32(-512).Bytes()),
			),
		),
		leaveRecord(uint32(LeaveClosedByRemoteGame), 2, 0x09),
		leaveRecord(uint32(LeaveClosedByLocalGame), 1, 0x0A),
		[]byte{RecordEndOfStream},
	)
}

func TestParseBytes(t *testing.T) {
	f := defaultFixture()
	f.records = sampleRecords()
	data := f.file(t, 64)

	replay, err := NewParser().ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}

	if replay.Version != 1 {
		t.Errorf("Version = %d, want 1", replay.Version)
	}
	wantMeta := ReplayMeta{
		SavingPlayerID:       1,
		IsSavingPlayerHost:   true,
		GameName:             "Local Game",
		MapName:              "Maps\\test.w3x",
		GameCreatorBattleTag: "Alice",
	}
	if replay.Metadata != wantMeta {
		t.Errorf("Metadata = %+v, want %+v", replay.Metadata, wantMeta)
	}

	wantSettings := GameSettings{
		GameSpeed:         2,
		VisDefault:        true,
		TeamsTogether:     true,
		FixedTeams:        3,
		SharedUnitControl: true,
		ObsReferees:       true,
	}
	if replay.GameSettings != wantSettings {
		t.Errorf("GameSettings = %+v, want %+v", replay.GameSettings, wantSettings)
	}

	if len(replay.Slots) != 2 {
		t.Fatalf("len(Slots) = %d, want 2", len(replay.Slots))
	}
	if s := replay.Slots[1]; s.Color.String() != "BLUE" || s.Race != RaceRandom || s.Status != SlotOccupied || s.TeamIndex != 1 {
		t.Errorf("Slots[1] = %+v", s)
	}

	alice, bob := replay.Players[1], replay.Players[2]
	if alice == nil || bob == nil {
		t.Fatalf("Players = %v, want ids 1 and 2", replay.Players)
	}
	if alice.BattleTag != "Alice" || alice.LeaveReason != LeaveClosedByLocalGame || alice.ResultByte != 0x0A || alice.LeftAt != 100 {
		t.Errorf("Players[1] = %+v", *alice)
	}
	if bob.BattleTag != "Bob" || bob.LeaveReason != LeaveClosedByRemoteGame || bob.LeftAt != 350 {
		t.Errorf("Players[2] = %+v", *bob)
	}

	// The in-band copy of "gl hf" is within the dedup window.
	if len(replay.Chat) != 1 {
		t.Fatalf("Chat = %+v, want one message", replay.Chat)
	}
	msg := replay.Chat[0]
	if msg.SenderPlayerID != 2 || msg.Message != "gl hf" || msg.Timestamp != 100 {
		t.Errorf("Chat[0] = %+v", msg)
	}
	if msg.RecipientSlotNumber == nil || *msg.RecipientSlotNumber != -2 {
		t.Errorf("Chat[0].RecipientSlotNumber = %v, want -2", msg.RecipientSlotNumber)
	}

	wantTypes := []ActionType{ActionTypeAbilityBasic, ActionTypePause, ActionTypeMinimapSignal}
	if len(replay.Actions) != len(wantTypes) {
		t.Fatalf("Actions = %+v, want %d actions", replay.Actions, len(wantTypes))
	}
	for i, want := range wantTypes {
		if got := replay.Actions[i].ActionType; got != want {
			t.Errorf("Actions[%d].ActionType = %v, want %v", i, got, want)
		}
	}
	ability := replay.Actions[0]
	if ability.PlayerID != 1 || ability.Timestamp != 100 || ability.Data == nil || *ability.Data.ItemID != "hpea" {
		t.Errorf("Actions[0] = %+v", ability)
	}
	signal := replay.Actions[2]
	if signal.Timestamp != 350 || signal.Data == nil || *signal.Data.Location != (MapLocation{X: 1024, Y: -512}) {
		t.Errorf("Actions[2] = %+v", signal)
	}

	if id, ok := replay.RecordingPlayerCandidate(); !ok || id != 1 {
		t.Errorf("RecordingPlayerCandidate() = %d, %v, want 1, true", id, ok)
	}
}

func TestParseBytesDeterministic(t *testing.T) {
	f := defaultFixture()
	f.records = sampleRecords()
	data := f.file(t, 32)

	first, err := NewParser().ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	second, err := NewParser(WithWorkers(4)).ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() with workers error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("decoding the same bytes twice gave different results")
	}

	a, _ := first.ToJSON(false)
	b, _ := second.ToJSON(false)
	if !bytes.Equal(a, b) {
		t.Error("JSON output differs between decodes")
	}
}

func TestParseBytesEndsAtBufferEnd(t *testing.T) {
	f := defaultFixture()
	f.records = timeSlot(40, actionBlock(1, []byte{0x02}))

	replay, err := NewParser().ParseBytes(f.file(t, 1024))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(replay.Actions) != 1 || replay.Actions[0].ActionType != ActionTypeResume {
		t.Errorf("Actions = %+v, want one RESUME", replay.Actions)
	}
}

func TestParseBytesSkipsPlayerMetadata(t *testing.T) {
	f := defaultFixture()
	f.metadata = [][]byte{{1, 2, 3, 4, 5}, {}}
	f.records = []byte{RecordEndOfStream}

	replay, err := NewParser().ParseBytes(f.file(t, 1024))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(replay.Slots) != 2 {
		t.Errorf("len(Slots) = %d, want 2", len(replay.Slots))
	}
}

func TestParseBytesMissingGameStart(t *testing.T) {
	f := defaultFixture()
	f.startTag = RecordFirstStart

	_, err := NewParser().ParseBytes(f.file(t, 1024))
	var target *UnexpectedRecordError
	if !errors.As(err, &target) {
		t.Fatalf("ParseBytes() error = %v, want *UnexpectedRecordError", err)
	}
	if target.Expected != RecordGameStart || target.Got != RecordFirstStart {
		t.Errorf("error = %+v", target)
	}
}

func TestParseBytesTruncated(t *testing.T) {
	f := defaultFixture()
	f.records = sampleRecords()
	stream := f.stream()

	tests := []struct {
		name string
		cut  int
	}{
		{"inside session player", 4},
		{"inside settings", 30},
		{"inside records", len(stream) - 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildFile(t, stream[:tt.cut], 1024, 0)
			_, err := NewParser().ParseBytes(data)
			var target *TruncatedDataError
			if !errors.As(err, &target) {
				t.Fatalf("ParseBytes() error = %v, want *TruncatedDataError", err)
			}
		})
	}
}

func TestParseBytesShortHeader(t *testing.T) {
	_, err := NewParser().ParseBytes(MagicString)
	var target *TruncatedDataError
	if !errors.As(err, &target) {
		t.Fatalf("ParseBytes() error = %v, want *TruncatedDataError", err)
	}
	if target.Stage != StageHeader {
		t.Errorf("Stage = %q, want %q", target.Stage, StageHeader)
	}
}

func TestStrictMode(t *testing.T) {
	f := defaultFixture()
	f.records = []byte{RecordEndOfStream}
	good := f.file(t, 1024)

	badMagic := bytes.Clone(good)
	badMagic[0] = 'w'

	badChecksum := bytes.Clone(good)
	sum := binary.LittleEndian.Uint16(badChecksum[HeaderV1Total+10:])
	binary.LittleEndian.PutUint16(badChecksum[HeaderV1Total+10:], sum+1)

	tests := []struct {
		name    string
		data    []byte
		strict  bool
		wantErr any
	}{
		{"lenient bad magic", badMagic, false, nil},
		{"lenient bad checksum", badChecksum, false, nil},
		{"strict good", good, true, nil},
		{"strict bad magic", badMagic, true, new(*InvalidHeaderError)},
		{"strict bad checksum", badChecksum, true, new(*ChecksumError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(WithStrict(tt.strict)).ParseBytes(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ParseBytes() error = %v", err)
				}
				return
			}
			if !errors.As(err, tt.wantErr) {
				t.Fatalf("ParseBytes() error = %v, want %T", err, tt.wantErr)
			}
		})
	}
}

func TestParseFileAndHeaderOnly(t *testing.T) {
	f := defaultFixture()
	f.records = sampleRecords()
	path := filepath.Join(t.TempDir(), "sample.w3g")
	if err := os.WriteFile(path, f.file(t, 128), 0o644); err != nil {
		t.Fatal(err)
	}

	replay, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if replay.Metadata.GameName != "Local Game" {
		t.Errorf("GameName = %q", replay.Metadata.GameName)
	}

	h, err := ParseHeaderOnly(path)
	if err != nil {
		t.Fatalf("ParseHeaderOnly() error = %v", err)
	}
	if !h.HasMagic() || h.GameIdentifier != GameIDTFT || h.DurationMs != 120000 || !h.IsMultiplayer() {
		t.Errorf("header = %+v", h)
	}

	actions, errs := NewParser().IterActions(path)
	n := 0
	for range actions {
		n++
	}
	if err := <-errs; err != nil {
		t.Fatalf("IterActions() error = %v", err)
	}
	if n != len(replay.Actions) {
		t.Errorf("IterActions yielded %d actions, want %d", n, len(replay.Actions))
	}
}

func TestDiagnosticsCounters(t *testing.T) {
	f := defaultFixture()
	f.records = concat(
		timeSlot(10, actionBlock(1, []byte{0x15, 0xAA, 0xBB})),
		[]byte{RecordEndOfStream},
	)

	counters := NewCounters()
	if _, err := NewParser(WithDiagnostics(counters)).ParseBytes(f.file(t, 1024)); err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if counters.Blocks != 1 || counters.FailedBlocks != 0 {
		t.Errorf("blocks = %d, failed = %d", counters.Blocks, counters.FailedBlocks)
	}
	if counters.UnknownActions[0x15] != 1 {
		t.Errorf("UnknownActions = %v, want 0x15 once", counters.UnknownActions)
	}
	if counters.Records[RecordTimeSlot] != 1 {
		t.Errorf("Records = %v, want one time slot", counters.Records)
	}
}
