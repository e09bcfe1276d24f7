package w3g

// slotRecordSize is the size of one slot record in the game start record.
const slotRecordSize = 9

// lobby is everything decoded ahead of the replay data records.
type lobby struct {
	isHost          bool
	sessionPlayerID uint8
	gameName        string
	mapName         string
	creatorName     string
	settings        GameSettings
	slotCount       uint32
	gameType        uint8
	privateCustom   uint8
	players         map[uint8]*ReplayPlayer
	slots           []Slot
	randomSeed      uint32
	selectMode      uint8
	startSpots      uint8
}

// parseLobby consumes the decompressed stream up to the first replay data
// record: session player, game name, settings, player list, metadata records
// and the game start record.
func parseLobby(c *cursor) (*lobby, error) {
	l := &lobby{players: make(map[uint8]*ReplayPlayer)}

	if err := l.parseSessionPlayer(c); err != nil {
		return nil, err
	}
	if err := l.parseGameInfo(c); err != nil {
		return nil, err
	}
	if err := l.parsePlayerList(c); err != nil {
		return nil, err
	}
	if err := l.parseGameStartRecord(c); err != nil {
		return nil, err
	}
	return l, nil
}

// parseSessionPlayer parses the record of the player who saved the replay.
//
// Structure:
//   - 1 byte: host flag (0x00 when the player hosted)
//   - 1 byte: player ID
//   - 4 bytes: unknown
//   - n bytes: player name (null-terminated)
//   - 1 byte: additional data size, followed by that many bytes
func (l *lobby) parseSessionPlayer(c *cursor) error {
	c.stage = StagePlayers

	hostFlag, err := c.Byte("read host flag")
	if err != nil {
		return err
	}
	l.isHost = hostFlag == 0x00

	if l.sessionPlayerID, err = c.Byte("read player id"); err != nil {
		return err
	}
	if err := c.Seek(4, "skip player record unknowns"); err != nil {
		return err
	}
	name, err := c.CString("read player name")
	if err != nil {
		return err
	}
	if err := skipSized(c, "skip player additional data"); err != nil {
		return err
	}

	l.players[l.sessionPlayerID] = newReplayPlayer(name)
	return nil
}

// parseGameInfo parses the game name, the encoded settings string and the
// fixed fields that follow it.
func (l *lobby) parseGameInfo(c *cursor) error {
	var err error
	if l.gameName, err = c.CString("read game name"); err != nil {
		return err
	}
	if err := c.Seek(1, "skip game name padding"); err != nil {
		return err
	}

	c.stage = StageSettings
	encoded, err := c.CBytes("read encoded settings")
	if err != nil {
		return err
	}
	if l.settings, l.mapName, l.creatorName, err = parseGameSettings(decodeGameSettings(encoded)); err != nil {
		return err
	}

	c.stage = StagePlayers
	if l.slotCount, err = c.Uint32("read player slot count"); err != nil {
		return err
	}
	if l.gameType, err = c.Byte("read game type"); err != nil {
		return err
	}
	if l.privateCustom, err = c.Byte("read private flag"); err != nil {
		return err
	}
	if err := c.Seek(2, "skip game type unknowns"); err != nil {
		return err
	}
	// Language ID, unused.
	return c.Seek(4, "skip language id")
}

// parsePlayerList parses player records (0x00 / 0x16), then skips Reforged
// player metadata records (0x39), and leaves the cursor after the game start
// tag (0x19).
func (l *lobby) parsePlayerList(c *cursor) error {
	tag, err := c.Byte("read record id")
	if err != nil {
		return err
	}

	for tag == RecordHost || tag == RecordAdditionalPlayer {
		id, err := c.Byte("read player id")
		if err != nil {
			return err
		}
		name, err := c.CString("read player name")
		if err != nil {
			return err
		}
		if err := skipSized(c, "skip player additional data"); err != nil {
			return err
		}
		l.players[id] = newReplayPlayer(name)

		if tag, err = c.Byte("read record id"); err != nil {
			return err
		}
	}

	for tag == RecordPlayerMetadata {
		if _, err := c.Byte("read metadata subtype"); err != nil {
			return err
		}
		length, err := c.Uint32("read metadata length")
		if err != nil {
			return err
		}
		if uint64(length) > uint64(c.Remaining()) {
			return c.truncated("skip player metadata", int(length))
		}
		if err := c.Seek(int(length), "skip player metadata"); err != nil {
			return err
		}
		if tag, err = c.Byte("read record id"); err != nil {
			return err
		}
	}

	if tag != RecordGameStart {
		return newUnexpectedRecordError(StagePlayers, RecordGameStart, tag, c.Pos()-1)
	}
	return nil
}

// parseGameStartRecord parses the body of the game start record.
//
// Structure:
//   - 1 word: number of following data bytes
//   - 1 byte: number of slot records
//   - n slot records (9 bytes each)
//   - 1 dword: random seed
//   - 1 byte: select mode
//   - 1 byte: start spot count
func (l *lobby) parseGameStartRecord(c *cursor) error {
	c.stage = StageSlots

	if _, err := c.Uint16("read game start length"); err != nil {
		return err
	}
	count, err := c.Byte("read slot count")
	if err != nil {
		return err
	}

	l.slots = make([]Slot, 0, count)
	for i := 0; i < int(count); i++ {
		raw, err := c.Bytes(slotRecordSize, "read slot record")
		if err != nil {
			return err
		}
		l.slots = append(l.slots, parseSlotRecord(raw))
	}

	if l.randomSeed, err = c.Uint32("read random seed"); err != nil {
		return err
	}
	if l.selectMode, err = c.Byte("read select mode"); err != nil {
		return err
	}
	if l.startSpots, err = c.Byte("read start spot count"); err != nil {
		return err
	}
	return nil
}

// parseSlotRecord maps one slot record.
//
// Slot record structure:
//   - 1 byte: Player ID (0x00 for computer)
//   - 1 byte: Download percent
//   - 1 byte: Slot status
//   - 1 byte: Computer flag
//   - 1 byte: Team number
//   - 1 byte: Color (0-based)
//   - 1 byte: Race flags
//   - 1 byte: AI strength
//   - 1 byte: Handicap
func parseSlotRecord(raw []byte) Slot {
	return Slot{
		PlayerID:           raw[0],
		MapDownloadPercent: raw[1],
		Status:             SlotStatus(raw[2]),
		IsComputer:         raw[3] == 0x01,
		TeamIndex:          raw[4],
		Color:              SlotColorFromWire(raw[5]),
		Race:               SlotRace(raw[6]),
		AIStrength:         ComputerAIStrength(raw[7]),
		HandicapPercent:    raw[8],
	}
}

// skipSized reads a length byte and skips that many bytes.
func skipSized(c *cursor, op string) error {
	n, err := c.Byte(op)
	if err != nil {
		return err
	}
	return c.Seek(int(n), op)
}

func newReplayPlayer(name string) *ReplayPlayer {
	return &ReplayPlayer{BattleTag: name}
}
