package w3g

import "fmt"

// ItemName returns a readable name for an item id as stored in ActionData.
//
// Item ids come in two forms:
//  1. Four character object codes, already reversed (e.g. "hpea").
//  2. Two byte order numbers, stored with a 0x000D marker word on the wire.
func ItemName(id string) string {
	if len(id) == 2 {
		order := uint16(id[1]) | uint16(id[0])<<8
		if name, ok := orderNames[order]; ok {
			return name
		}
		return fmt.Sprintf("order_%d", order)
	}
	if name, ok := objectNames[id]; ok {
		return name
	}
	return id
}

// parseActionBlock decodes the actions of one player inside a time slot.
// An opcode of unknown size skips the rest of the block.
func (p *streamParser) parseActionBlock(playerID uint8, length int) error {
	p.c.stage = StageActions
	blockStart := p.c.Pos()

	for read := 0; read < length; {
		before := p.c.Pos()
		opcode, err := p.c.Byte("read action id")
		if err != nil {
			return err
		}
		p.diag.ActionSeen(opcode, playerID)

		action := Action{
			PlayerID:   playerID,
			Timestamp:  p.timestamp,
			ActionType: ActionType(opcode),
		}
		known, err := p.decodeAction(opcode, &action)
		if err != nil {
			return err
		}
		if !known {
			left := blockStart + length - p.c.Pos()
			if left < 0 {
				left = 0
			}
			if err := p.c.Seek(left, "skip unknown action"); err != nil {
				return err
			}
			p.diag.UnknownAction(opcode, before, left)
			return nil
		}

		if action.ActionType.Known() {
			p.actions = append(p.actions, action)
		}
		read += p.c.Pos() - before
	}
	return nil
}

// decodeAction reads the payload of one action. It returns false when the
// opcode's size is unknown; nothing past the opcode is consumed in that case.
func (p *streamParser) decodeAction(opcode uint8, action *Action) (bool, error) {
	var err error

	switch opcode {
	case ActionSetSpeed:
		_, err = p.c.Byte("read game speed")

	case ActionSaveGame:
		var name string
		if name, err = p.c.CString("read savegame name"); err == nil {
			action.Data = &ActionData{SavegameName: &name}
		}

	case ActionSaveFinished:
		err = p.c.Seek(4, "skip save finished")

	case ActionAbilityNoParams, ActionAbilityTargetPos, ActionAbilityPosObject, ActionGiveDropItem:
		action.Data, err = p.decodeAbility(opcode)

	case ActionChangeSelection:
		action.Data, err = p.decodeSelection()

	case ActionAssignGroup:
		action.Data, err = p.decodeGroupAssign()

	case ActionTriggerCommand:
		err = p.parseChatCommand(action.PlayerID)

	case ActionScenarioTrigger:
		var a, b, c uint32
		if a, err = p.c.Uint32("read scenario unknown a"); err != nil {
			break
		}
		if b, err = p.c.Uint32("read scenario unknown b"); err != nil {
			break
		}
		if c, err = p.c.Uint32("read scenario unknown c"); err != nil {
			break
		}
		action.Data = &ActionData{UnknownA: &a, UnknownB: &b, UnknownC: &c}

	case ActionMinimapSignal:
		var loc *MapLocation
		if loc, err = p.readLocation(); err == nil {
			action.Data = &ActionData{Location: loc}
		}

	default:
		size, ok := actionSkipSizes[opcode]
		if !ok {
			return false, nil
		}
		err = p.c.Seek(size, "skip action")
	}

	return true, err
}

// decodeAbility decodes the ability family 0x10-0x13.
//
// Structure:
//   - 1 word: ability flags
//   - 4 bytes: item ID
//   - 2 dwords: unknown
//   - 0x11+: 2 floats target location
//   - 0x12+: 2 dwords target object ID
//   - 0x13: 2 dwords item object ID
func (p *streamParser) decodeAbility(opcode uint8) (*ActionData, error) {
	flags, err := p.c.Uint16("read ability flags")
	if err != nil {
		return nil, err
	}
	itemID, err := p.readItemID()
	if err != nil {
		return nil, err
	}
	a, err := p.c.Uint32("read ability unknown a")
	if err != nil {
		return nil, err
	}
	b, err := p.c.Uint32("read ability unknown b")
	if err != nil {
		return nil, err
	}
	data := &ActionData{AbilityFlags: &flags, ItemID: &itemID, UnknownA: &a, UnknownB: &b}

	if opcode >= ActionAbilityTargetPos {
		if data.Location, err = p.readLocation(); err != nil {
			return nil, err
		}
	}
	if opcode >= ActionAbilityPosObject {
		if data.TargetObjID1, data.TargetObjID2, err = p.readObjectPair("read target object id"); err != nil {
			return nil, err
		}
	}
	if opcode == ActionGiveDropItem {
		if data.ItemObjID1, data.ItemObjID2, err = p.readObjectPair("read item object id"); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// readItemID reads the 4 byte item id field. When the word at offset 2 is the
// order marker, only the first 2 bytes are the id. The wire order is reversed.
func (p *streamParser) readItemID() (string, error) {
	marker, err := p.c.PeekUint16(2, "peek item id")
	if err != nil {
		return "", err
	}

	var id string
	if marker == numericItemMarker {
		if id, err = p.c.String(2, "read order id"); err != nil {
			return "", err
		}
		if err := p.c.Seek(2, "skip order marker"); err != nil {
			return "", err
		}
	} else if id, err = p.c.String(4, "read item id"); err != nil {
		return "", err
	}
	return reverseString(id), nil
}

// decodeSelection decodes a change selection action.
//
// Structure:
//   - 1 byte: select mode (1 = add, 2 = remove)
//   - 1 word: unit count
//   - n * 8 bytes: object IDs
func (p *streamParser) decodeSelection() (*ActionData, error) {
	mode, err := p.c.Byte("read selection mode")
	if err != nil {
		return nil, err
	}
	objects, err := p.readObjectList("read selected objects")
	if err != nil {
		return nil, err
	}
	selMode := SelectionMode(mode)
	return &ActionData{SelMode: &selMode, Objects: objects}, nil
}

// decodeGroupAssign decodes an assign group hotkey action.
//
// Structure:
//   - 1 byte: group number
//   - 1 word: item count
//   - n * 8 bytes: object IDs
func (p *streamParser) decodeGroupAssign() (*ActionData, error) {
	group, err := p.c.Byte("read group number")
	if err != nil {
		return nil, err
	}
	objects, err := p.readObjectList("read group objects")
	if err != nil {
		return nil, err
	}
	return &ActionData{GroupID: &group, Objects: objects}, nil
}

func (p *streamParser) readObjectList(op string) ([]ObjectIDs, error) {
	count, err := p.c.Uint16(op)
	if err != nil {
		return nil, err
	}
	if int(count)*8 > p.c.Remaining() {
		return nil, p.c.truncated(op, int(count)*8)
	}
	objects := make([]ObjectIDs, 0, count)
	for i := 0; i < int(count); i++ {
		id1, _ := p.c.Uint32(op)
		id2, _ := p.c.Uint32(op)
		objects = append(objects, ObjectIDs{ID1: id1, ID2: id2})
	}
	return objects, nil
}

func (p *streamParser) readObjectPair(op string) (*uint32, *uint32, error) {
	id1, err := p.c.Uint32(op)
	if err != nil {
		return nil, nil, err
	}
	id2, err := p.c.Uint32(op)
	if err != nil {
		return nil, nil, err
	}
	return &id1, &id2, nil
}

func (p *streamParser) readLocation() (*MapLocation, error) {
	x, err := p.c.Float32("read location x")
	if err != nil {
		return nil, err
	}
	y, err := p.c.Float32("read location y")
	if err != nil {
		return nil, err
	}
	return &MapLocation{X: x, Y: y}, nil
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
