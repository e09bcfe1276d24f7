package w3g

// settingsStringsOffset is where the map name starts in the decoded settings blob.
const settingsStringsOffset = 13

// decodeGameSettings decodes the encoded settings string.
//
// Bytes are grouped in runs of eight. The first byte of each run is a mask
// and is not emitted. Every other byte at position p is emitted as-is when
// bit p%8 of the mask is set, and decremented by one otherwise. Decoding stops
// at the first zero byte of the input.
func decodeGameSettings(enc []byte) []byte {
	dec := make([]byte, 0, len(enc))
	var mask byte
	for i, b := range enc {
		if b == 0 {
			break
		}
		if i%8 == 0 {
			mask = b
			continue
		}
		if mask&(1<<(i%8)) == 0 {
			dec = append(dec, b-1)
		} else {
			dec = append(dec, b)
		}
	}
	return dec
}

// GetBitsValue composes an integer whose bit i is bit bits[i] of b.
func GetBitsValue(b byte, bits []uint8) uint8 {
	var v uint8
	for i, bit := range bits {
		if b&(1<<bit) != 0 {
			v |= 1 << i
		}
	}
	return v
}

func bitSet(b byte, bit uint8) bool {
	return GetBitsValue(b, []uint8{bit}) == 1
}

// parseGameSettings unpacks a decoded settings blob.
//
// Layout of the decoded blob:
//   - Byte 0: speed (bits 0-1)
//   - Byte 1: visibility (bits 0-3), observers (bits 4-5), teams together (bit 6)
//   - Byte 2: fixed teams (bits 1-2)
//   - Byte 3: shared unit control (bit 0), random hero (bit 1), random races (bit 2), referees (bit 6)
//   - Bytes 4-12: map checksum and unknowns
//   - Byte 13: map name (null-terminated), then creator name (null-terminated)
func parseGameSettings(dec []byte) (GameSettings, string, string, error) {
	if len(dec) < settingsStringsOffset {
		return GameSettings{}, "", "", newTruncatedDataError(StageSettings, "decode game settings", 0, settingsStringsOffset, len(dec))
	}

	settings := GameSettings{
		GameSpeed:         GetBitsValue(dec[0], []uint8{0, 1}),
		VisHideTerrain:    bitSet(dec[1], 0),
		VisMapExplored:    bitSet(dec[1], 1),
		VisAlwaysVisible:  bitSet(dec[1], 2),
		VisDefault:        bitSet(dec[1], 3),
		ObsMode:           GetBitsValue(dec[1], []uint8{4, 5}),
		TeamsTogether:     bitSet(dec[1], 6),
		FixedTeams:        GetBitsValue(dec[2], []uint8{1, 2}),
		SharedUnitControl: bitSet(dec[3], 0),
		RandomHero:        bitSet(dec[3], 1),
		RandomRaces:       bitSet(dec[3], 2),
		ObsReferees:       bitSet(dec[3], 6),
	}

	sub := newCursor(dec[settingsStringsOffset:], StageSettings)
	mapName, err := sub.CString("read map name")
	if err != nil {
		return settings, "", "", err
	}
	creator, err := sub.CString("read creator name")
	if err != nil {
		return settings, mapName, "", err
	}
	return settings, mapName, creator, nil
}
