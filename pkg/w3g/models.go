package w3g

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Every enumeration below stores the raw wire value, so a value without a
// name still carries the byte it was decoded from.

// SlotColor is the 1-based player color (wire byte + 1).
type SlotColor uint8

var slotColorNames = [...]string{
	1: "RED", 2: "BLUE", 3: "TEAL", 4: "PURPLE", 5: "YELLOW", 6: "ORANGE", 7: "GREEN",
	8: "PINK", 9: "GRAY", 10: "LIGHTBLUE", 11: "DARKGREEN", 12: "BROWN", 13: "MAROON",
	14: "NAVY", 15: "TURQUOISE", 16: "VIOLET", 17: "WHEAT", 18: "PEACH", 19: "MINT",
	20: "LAVENDER", 21: "COAL", 22: "SNOW", 23: "EMERALD", 24: "PEANUT", 25: "OBSERVER",
}

const (
	ColorRed      SlotColor = 1
	ColorObserver SlotColor = 25
)

// SlotColorFromWire converts the 0-based color byte of a slot record.
func SlotColorFromWire(b uint8) SlotColor { return SlotColor(b + 1) }

func (c SlotColor) Known() bool { return int(c) < len(slotColorNames) && slotColorNames[c] != "" }
func (c SlotColor) Raw() uint8  { return uint8(c) }

func (c SlotColor) String() string {
	if !c.Known() {
		return "UNKNOWN"
	}
	return slotColorNames[c]
}

// MarshalJSON implements json.Marshaler for SlotColor.
func (c SlotColor) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// SlotRace is the race selected in a lobby slot.
type SlotRace uint8

const (
	RaceHuman    SlotRace = 0x01
	RaceOrc      SlotRace = 0x02
	RaceNightElf SlotRace = 0x04
	RaceUndead   SlotRace = 0x08
	RaceRandom   SlotRace = 0x20
	RaceFixed    SlotRace = 0x40
)

func (r SlotRace) Raw() uint8  { return uint8(r) }
func (r SlotRace) Known() bool { return r.String() != "UNKNOWN" }

func (r SlotRace) String() string {
	switch r {
	case RaceHuman:
		return "HUMAN"
	case RaceOrc:
		return "ORC"
	case RaceNightElf:
		return "NIGHTELF"
	case RaceUndead:
		return "UNDEAD"
	case RaceRandom:
		return "RANDOM"
	case RaceFixed:
		return "FIXED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for SlotRace.
func (r SlotRace) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// ComputerAIStrength is the difficulty of a computer slot.
type ComputerAIStrength uint8

const (
	AIEasy   ComputerAIStrength = 0
	AINormal ComputerAIStrength = 1
	AIInsane ComputerAIStrength = 2
)

func (s ComputerAIStrength) Raw() uint8  { return uint8(s) }
func (s ComputerAIStrength) Known() bool { return s <= AIInsane }

func (s ComputerAIStrength) String() string {
	switch s {
	case AIEasy:
		return "EASY"
	case AINormal:
		return "NORMAL"
	case AIInsane:
		return "INSANE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for ComputerAIStrength.
func (s ComputerAIStrength) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// SlotStatus represents slot status in game lobby.
type SlotStatus uint8

const (
	SlotEmpty    SlotStatus = 0x00
	SlotClosed   SlotStatus = 0x01
	SlotOccupied SlotStatus = 0x02
)

func (s SlotStatus) Raw() uint8  { return uint8(s) }
func (s SlotStatus) Known() bool { return s <= SlotOccupied }

func (s SlotStatus) String() string {
	switch s {
	case SlotEmpty:
		return "EMPTY"
	case SlotClosed:
		return "CLOSED"
	case SlotOccupied:
		return "OCCUPIED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for SlotStatus.
func (s SlotStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// LeaveReason is the reason code of a leave-game record.
type LeaveReason uint32

const (
	LeaveReasonUnset        LeaveReason = 0
	LeaveClosedByRemoteGame LeaveReason = 0x01
	LeaveClosedByLocalGame  LeaveReason = 0x0C
)

func (r LeaveReason) Raw() uint32 { return uint32(r) }
func (r LeaveReason) Known() bool { return r == LeaveClosedByRemoteGame || r == LeaveClosedByLocalGame }

func (r LeaveReason) String() string {
	switch r {
	case LeaveClosedByRemoteGame:
		return "CONNECTION_CLOSED_BY_REMOTE_GAME"
	case LeaveClosedByLocalGame:
		return "CONNECTION_CLOSED_BY_LOCAL_GAME"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for LeaveReason.
func (r LeaveReason) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// ActionType is the opcode of an action.
type ActionType uint8

const (
	ActionTypePause                              ActionType = 0x01
	ActionTypeResume                             ActionType = 0x02
	ActionTypeSaveGame                           ActionType = 0x06
	ActionTypeSaveGameDone                       ActionType = 0x07
	ActionTypeAbilityBasic                       ActionType = 0x10
	ActionTypeAbilityWithTargetLocation          ActionType = 0x11
	ActionTypeAbilityWithTargetLocationAndObject ActionType = 0x12
	ActionTypeItemTransfer                       ActionType = 0x13
	ActionTypeChangeSelection                    ActionType = 0x16
	ActionTypeGroupAssign                        ActionType = 0x17
	ActionTypeGroupSelect                        ActionType = 0x18
	ActionTypeMinimapSignal                      ActionType = 0x68
)

var actionTypeNames = map[ActionType]string{
	ActionTypePause:                              "PAUSE",
	ActionTypeResume:                             "RESUME",
	ActionTypeSaveGame:                           "SAVE_GAME",
	ActionTypeSaveGameDone:                       "SAVE_GAME_DONE",
	ActionTypeAbilityBasic:                       "ABILITY_BASIC",
	ActionTypeAbilityWithTargetLocation:          "ABILITY_WITH_TARGET_LOCATION",
	ActionTypeAbilityWithTargetLocationAndObject: "ABILITY_WITH_TARGET_LOCATION_AND_OBJECT",
	ActionTypeItemTransfer:                       "ITEM_TRANSFER",
	ActionTypeChangeSelection:                    "CHANGE_SELECTION",
	ActionTypeGroupAssign:                        "GROUP_ASSIGN",
	ActionTypeGroupSelect:                        "GROUP_SELECT",
	ActionTypeMinimapSignal:                      "MINIMAP_SIGNAL",
}

func (a ActionType) Raw() uint8 { return uint8(a) }

func (a ActionType) Known() bool {
	_, ok := actionTypeNames[a]
	return ok
}

func (a ActionType) String() string {
	if name, ok := actionTypeNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON implements json.Marshaler for ActionType.
func (a ActionType) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

// SelectionMode is the mode byte of a change-selection action.
type SelectionMode uint8

const (
	SelectionAdd    SelectionMode = 0x01
	SelectionRemove SelectionMode = 0x02
)

func (m SelectionMode) Raw() uint8  { return uint8(m) }
func (m SelectionMode) Known() bool { return m == SelectionAdd || m == SelectionRemove }

func (m SelectionMode) String() string {
	switch m {
	case SelectionAdd:
		return "ADD"
	case SelectionRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for SelectionMode.
func (m SelectionMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// ReplayMeta holds match level metadata.
type ReplayMeta struct {
	SavingPlayerID       uint8  `json:"saving_player_id"`
	IsSavingPlayerHost   bool   `json:"is_saving_player_host"`
	GameName             string `json:"game_name"`
	MapName              string `json:"map_name"`
	GameCreatorBattleTag string `json:"game_creator_battle_tag"`
}

// GameSettings contains game configuration decoded from the settings blob.
type GameSettings struct {
	GameSpeed         uint8 `json:"game_speed"`
	VisHideTerrain    bool  `json:"vis_hide_terrain"`
	VisMapExplored    bool  `json:"vis_map_explored"`
	VisAlwaysVisible  bool  `json:"vis_always_visible"`
	VisDefault        bool  `json:"vis_default"`
	ObsMode           uint8 `json:"obs_mode"`
	TeamsTogether     bool  `json:"teams_together"`
	FixedTeams        uint8 `json:"fixed_teams"`
	SharedUnitControl bool  `json:"shared_unit_control"`
	RandomHero        bool  `json:"random_hero"`
	RandomRaces       bool  `json:"random_races"`
	ObsReferees       bool  `json:"obs_referees"`
}

// SpeedName returns human-readable speed name.
func (s *GameSettings) SpeedName() string {
	names := []string{"Slow", "Normal", "Fast"}
	if int(s.GameSpeed) < len(names) {
		return names[s.GameSpeed]
	}
	return "Unknown"
}

// Slot represents a slot in the game lobby.
type Slot struct {
	PlayerID           uint8              `json:"player_id"`
	MapDownloadPercent uint8              `json:"map_download_percent"`
	Status             SlotStatus         `json:"status"`
	IsComputer         bool               `json:"is_computer"`
	TeamIndex          uint8              `json:"team_index"`
	Color              SlotColor          `json:"color"`
	Race               SlotRace           `json:"race"`
	AIStrength         ComputerAIStrength `json:"ai_strength"`
	HandicapPercent    uint8              `json:"handicap_percent"`
}

// ReplayPlayer is a roster entry.
type ReplayPlayer struct {
	BattleTag   string      `json:"battle_tag"`
	LeaveReason LeaveReason `json:"leave_reason"`
	ResultByte  uint8       `json:"result_byte"`
	LeftAt      uint64      `json:"left_at"`
}

// ChatMessage represents an in-game chat message.
type ChatMessage struct {
	SenderPlayerID      uint8  `json:"sender_player_id"`
	RecipientSlotNumber *int8  `json:"recipient_slot_number,omitempty"`
	Flag                *uint8 `json:"flag,omitempty"`
	Message             string `json:"message"`
	Timestamp           uint64 `json:"timestamp"`
}

// Time returns message timestamp as time.Duration.
func (c *ChatMessage) Time() time.Duration {
	return time.Duration(c.Timestamp) * time.Millisecond
}

// MapLocation is a point on the map.
type MapLocation struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// ObjectIDs is the pair of ids the game uses to name one object.
type ObjectIDs struct {
	ID1 uint32 `json:"id1"`
	ID2 uint32 `json:"id2"`
}

// ActionData holds the opcode specific payload of an action. Fields the
// opcode does not carry are nil.
type ActionData struct {
	Location     *MapLocation   `json:"location,omitempty"`
	SavegameName *string        `json:"savegame_name,omitempty"`
	ItemID       *string        `json:"item_id,omitempty"`
	UnknownA     *uint32        `json:"unknownA,omitempty"`
	UnknownB     *uint32        `json:"unknownB,omitempty"`
	UnknownC     *uint32        `json:"unknownC,omitempty"`
	Objects      []ObjectIDs    `json:"objects,omitzero"`
	AbilityFlags *uint16        `json:"ability_flags,omitempty"`
	SelMode      *SelectionMode `json:"sel_mode,omitempty"`
	GroupID      *uint8         `json:"group_id,omitempty"`
	TargetObjID1 *uint32        `json:"target_obj_id_1,omitempty"`
	TargetObjID2 *uint32        `json:"target_obj_id_2,omitempty"`
	ItemObjID1   *uint32        `json:"item_obj_id_1,omitempty"`
	ItemObjID2   *uint32        `json:"item_obj_id_2,omitempty"`
}

// Action represents a player action/command.
type Action struct {
	PlayerID   uint8       `json:"player_id"`
	Timestamp  uint64      `json:"timestamp"`
	ActionType ActionType  `json:"action_type"`
	Data       *ActionData `json:"data,omitempty"`
}

// Time returns action timestamp as time.Duration.
func (a *Action) Time() time.Duration {
	return time.Duration(a.Timestamp) * time.Millisecond
}

// Replay represents a complete decoded replay.
type Replay struct {
	Version      uint8                   `json:"version"`
	Header       *ReplayHeader           `json:"header,omitempty"`
	Metadata     ReplayMeta              `json:"metadata"`
	GameSettings GameSettings            `json:"game_settings"`
	Slots        []Slot                  `json:"slots"`
	Players      map[uint8]*ReplayPlayer `json:"players"`
	Chat         []ChatMessage           `json:"chat"`
	Actions      []Action                `json:"actions"`
}

// GetPlayer returns player by ID.
func (r *Replay) GetPlayer(playerID uint8) *ReplayPlayer {
	return r.Players[playerID]
}

// GetPlayerByName returns the id and record of a player by battle tag (case-insensitive).
func (r *Replay) GetPlayerByName(name string) (uint8, *ReplayPlayer) {
	for _, id := range r.PlayerIDs() {
		if strings.EqualFold(r.Players[id].BattleTag, name) {
			return id, r.Players[id]
		}
	}
	return 0, nil
}

// PlayerIDs returns roster ids in ascending order.
func (r *Replay) PlayerIDs() []uint8 {
	ids := make([]uint8, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PlayerActionCounts returns the number of retained actions per player.
func (r *Replay) PlayerActionCounts() map[uint8]int {
	counts := make(map[uint8]int, len(r.Players))
	for i := range r.Actions {
		counts[r.Actions[i].PlayerID]++
	}
	return counts
}

// APM returns actions per minute for a player over the header duration,
// or over the last action timestamp when the header carries none.
func (r *Replay) APM(playerID uint8) float64 {
	var durationMs uint64
	if r.Header != nil {
		durationMs = uint64(r.Header.DurationMs)
	}
	if durationMs == 0 && len(r.Actions) > 0 {
		durationMs = r.Actions[len(r.Actions)-1].Timestamp
	}
	if durationMs == 0 {
		return 0
	}
	return float64(r.PlayerActionCounts()[playerID]) / (float64(durationMs) / 60000.0)
}

// ToJSON exports replay to JSON bytes.
func (r *Replay) ToJSON(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}
