package w3g

// parseChatMessage parses a chat message record.
//
// Chat message structure:
//   - 1 byte: Sender ID
//   - 1 word: Message length (unused)
//   - 1 byte: Flags
//   - 1 dword: Chat mode; mode - 2 is the recipient slot, negative for all/allies/observers
//   - n bytes: Message text (null-terminated)
func (p *streamParser) parseChatMessage() error {
	senderID, err := p.c.Byte("read chat sender")
	if err != nil {
		return err
	}
	if err := p.c.Seek(2, "skip chat length"); err != nil {
		return err
	}
	flag, err := p.c.Byte("read chat flag")
	if err != nil {
		return err
	}
	mode, err := p.c.Uint32("read chat mode")
	if err != nil {
		return err
	}
	message, err := p.c.CString("read chat message")
	if err != nil {
		return err
	}

	recipient := int8(int32(mode) - 2)
	p.chat = append(p.chat, ChatMessage{
		SenderPlayerID:      senderID,
		RecipientSlotNumber: &recipient,
		Flag:                &flag,
		Message:             message,
		Timestamp:           p.timestamp,
	})
	return nil
}

// parseChatCommand parses the in-band chat command action (0x60): 8 unknown
// bytes and a null-terminated string. Some replays store chat only here, others
// mirror chat records, so a message already seen from the same sender within
// chatDedupWindow is dropped.
func (p *streamParser) parseChatCommand(playerID uint8) error {
	if err := p.c.Seek(8, "skip chat command unknowns"); err != nil {
		return err
	}
	command, err := p.c.CString("read chat command")
	if err != nil {
		return err
	}

	if p.hasRecentChat(playerID, command) {
		return nil
	}
	p.chat = append(p.chat, ChatMessage{
		SenderPlayerID: playerID,
		Message:        command,
		Timestamp:      p.timestamp,
	})
	return nil
}

func (p *streamParser) hasRecentChat(playerID uint8, message string) bool {
	for i := len(p.chat) - 1; i >= 0; i-- {
		m := &p.chat[i]
		if m.SenderPlayerID == playerID && m.Message == message && absDiff(m.Timestamp, p.timestamp) < chatDedupWindow {
			return true
		}
	}
	return false
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
