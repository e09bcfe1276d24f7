package w3g

// streamParser walks the replay data records that follow the game start
// record. It owns the roster while the records are decoded.
type streamParser struct {
	c          *cursor
	diag       Diagnostics
	players    map[uint8]*ReplayPlayer
	timestamp  uint64
	chat       []ChatMessage
	actions    []Action
	lastLeaver uint8
}

func newStreamParser(c *cursor, players map[uint8]*ReplayPlayer, diag Diagnostics) *streamParser {
	return &streamParser{
		c:       c,
		diag:    diag,
		players: players,
		chat:    make([]ChatMessage, 0),
		actions: make([]Action, 0),
	}
}

// run dispatches records until the end-of-stream tag, an unknown tag, or the
// end of the buffer at a record boundary.
func (p *streamParser) run() error {
	for {
		p.c.stage = StageRecords
		offset := p.c.Pos()
		if p.c.Remaining() == 0 {
			p.diag.StreamEnd(0, offset, true)
			return nil
		}

		tag, err := p.c.Byte("read record id")
		if err != nil {
			return err
		}

		switch tag {
		case RecordLeaveGame:
			err = p.parseLeaveGame()
		case RecordTimeSlot, RecordTimeSlotOld:
			err = p.parseTimeSlot()
		case RecordChat:
			err = p.parseChatMessage()
		case RecordEndOfStream:
			p.diag.StreamEnd(tag, offset, false)
			return nil
		default:
			size, ok := fixedRecordSizes[tag]
			if !ok {
				p.diag.StreamEnd(tag, offset, false)
				return nil
			}
			err = p.c.Seek(size, "skip record")
		}
		if err != nil {
			return err
		}

		p.diag.RecordSeen(tag, offset)
	}
}

// parseLeaveGame parses a leave game record.
//
// Structure:
//   - 1 dword: reason
//   - 1 byte: player ID
//   - 1 dword: result
//   - 1 dword: unknown
func (p *streamParser) parseLeaveGame() error {
	reason, err := p.c.Uint32("read leave reason")
	if err != nil {
		return err
	}
	playerID, err := p.c.Byte("read leaving player id")
	if err != nil {
		return err
	}
	result, err := p.c.Uint32("read leave result")
	if err != nil {
		return err
	}
	if err := p.c.Seek(4, "skip leave unknown"); err != nil {
		return err
	}

	if player, ok := p.players[playerID]; ok {
		player.LeaveReason = LeaveReason(reason)
		player.ResultByte = uint8(result)
	}
	p.lastLeaver = playerID
	return nil
}

// parseTimeSlot parses a time slot record.
//
// Structure:
//   - 1 word: number of bytes that follow
//   - 1 word: time increment
//   - command data, one block per player:
//   - 1 byte: player ID
//   - 1 word: action block length
//   - n bytes: actions
func (p *streamParser) parseTimeSlot() error {
	length, err := p.c.Uint16("read time slot length")
	if err != nil {
		return err
	}
	increment, err := p.c.Uint16("read time increment")
	if err != nil {
		return err
	}
	p.timestamp += uint64(increment)

	remaining := int(length) - 2
	declared := remaining
	start := p.c.Pos()

	if remaining > 3 {
		for {
			p.c.stage = StageRecords
			playerID, err := p.c.Byte("read command player id")
			if err != nil {
				return err
			}
			blockLength, err := p.c.Uint16("read action block length")
			if err != nil {
				return err
			}
			remaining -= 3

			if player, ok := p.players[playerID]; ok {
				player.LeftAt = p.timestamp
			}

			blockStart := p.c.Pos()
			if err := p.parseActionBlock(playerID, int(blockLength)); err != nil {
				return err
			}
			remaining -= p.c.Pos() - blockStart

			if remaining < 1 {
				break
			}
		}
	}

	if consumed := p.c.Pos() - start; consumed != declared {
		p.diag.LengthMismatch(start, consumed, declared)
	}
	return nil
}
