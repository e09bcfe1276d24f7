package w3g

import (
	"bytes"
	"errors"
	"testing"
)

func TestGetBitsValue(t *testing.T) {
	tests := []struct {
		b    byte
		bits []uint8
		want uint8
	}{
		{0b11, []uint8{0, 1}, 3},
		{0b10, []uint8{0, 1}, 2},
		{0b00, []uint8{0, 1}, 0},
		{0b0110, []uint8{1, 2}, 3},
		{0b0100, []uint8{1, 2}, 2},
		{0b1000_0000, []uint8{7}, 1},
		{0b0011_0000, []uint8{4, 5}, 3},
		{0xFF, nil, 0},
	}
	for _, tt := range tests {
		if got := GetBitsValue(tt.b, tt.bits); got != tt.want {
			t.Errorf("GetBitsValue(%08b, %v) = %d, want %d", tt.b, tt.bits, got, tt.want)
		}
	}
}

func TestDecodeGameSettings(t *testing.T) {
	tests := []struct {
		name string
		enc  []byte
		want []byte
	}{
		{
			name: "mask clear decrements",
			enc:  []byte{0x01, 0x02, 0x03, 0x04},
			want: []byte{0x01, 0x02, 0x03},
		},
		{
			name: "mask bit keeps byte",
			enc:  []byte{0x01 | 1<<2, 0x02, 0x03},
			want: []byte{0x01, 0x03},
		},
		{
			name: "second group uses its own mask",
			enc:  []byte{0x01, 2, 2, 2, 2, 2, 2, 2, 0xFF, 0x10},
			want: []byte{1, 1, 1, 1, 1, 1, 1, 0x10},
		},
		{
			name: "stops at zero",
			enc:  []byte{0x01, 0x05, 0x00, 0x07},
			want: []byte{0x04},
		},
		{
			name: "empty",
			enc:  nil,
			want: []byte{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeGameSettings(tt.enc); !bytes.Equal(got, tt.want) {
				t.Errorf("decodeGameSettings(% x) = % x, want % x", tt.enc, got, tt.want)
			}
		})
	}
}

func TestDecodeGameSettingsInverse(t *testing.T) {
	dec := make([]byte, 0, 300)
	for i := 0; i < 300; i++ {
		dec = append(dec, byte(i*37))
	}
	enc := encodeSettings(dec)
	if bytes.IndexByte(enc, 0) >= 0 {
		t.Fatal("encoded settings contain a zero byte")
	}
	if got := decodeGameSettings(enc); !bytes.Equal(got, dec) {
		t.Errorf("decode(encode(x)) != x\n got % x\nwant % x", got, dec)
	}
}

func TestParseGameSettings(t *testing.T) {
	var fixed [13]byte
	fixed[0] = 0x01
	fixed[1] = 0b0011_0111
	fixed[2] = 0b0000_0010
	fixed[3] = 0b0000_0110

	settings, mapName, creator, err := parseGameSettings(settingsBlob(fixed, "Maps/(2)EchoIsles.w3x", "Grubby"))
	if err != nil {
		t.Fatalf("parseGameSettings() error = %v", err)
	}
	want := GameSettings{
		GameSpeed:        1,
		VisHideTerrain:   true,
		VisMapExplored:   true,
		VisAlwaysVisible: true,
		ObsMode:          3,
		FixedTeams:       1,
		RandomHero:       true,
		RandomRaces:      true,
	}
	if settings != want {
		t.Errorf("settings = %+v, want %+v", settings, want)
	}
	if mapName != "Maps/(2)EchoIsles.w3x" || creator != "Grubby" {
		t.Errorf("names = %q, %q", mapName, creator)
	}
	if settings.SpeedName() != "Normal" {
		t.Errorf("SpeedName() = %q, want Normal", settings.SpeedName())
	}
}

func TestParseGameSettingsShort(t *testing.T) {
	tests := []struct {
		name string
		dec  []byte
	}{
		{"shorter than fixed part", make([]byte, 12)},
		{"unterminated map name", append(make([]byte, 13), "Maps"...)},
		{"missing creator", append(make([]byte, 13), "Maps\x00Bob"...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseGameSettings(tt.dec)
			var target *TruncatedDataError
			if !errors.As(err, &target) {
				t.Fatalf("error = %v, want *TruncatedDataError", err)
			}
			if target.Stage != StageSettings {
				t.Errorf("Stage = %q, want %q", target.Stage, StageSettings)
			}
		})
	}
}
