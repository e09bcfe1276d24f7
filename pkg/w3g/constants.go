package w3g

// MagicString is the magic bytes identifying W3G replay files (28 bytes)
var MagicString = []byte("Warcraft III recorded game\x1a\x00")

// Header layout
const (
	BaseHeaderSize  = 0x30 // 48 bytes for base header
	HeaderV0Total   = 0x40 // 64 bytes
	HeaderV1Total   = 0x44 // 68 bytes
	BlockHeaderSize = 12

	offsetHeaderVersion = 0x24
	offsetBlockCount    = 0x2C
)

// Game identifiers, as read back from their reversed wire form.
const (
	GameIDClassic = "WAR3" // Reign of Chaos / Classic
	GameIDTFT     = "W3XP" // The Frozen Throne and Reforged
)

// Flags
const (
	FlagSinglePlayer = 0x0000
	FlagMultiplayer  = 0x8000
)

// Version threshold for Reforged
const ReforgedVersionThreshold = 29

// Record tags in the decompressed stream.
const (
	RecordHost             = 0x00
	RecordAdditionalPlayer = 0x16
	RecordLeaveGame        = 0x17
	RecordGameStart        = 0x19
	RecordFirstStart       = 0x1A
	RecordSecondStart      = 0x1B
	RecordThirdStart       = 0x1C
	RecordTimeSlotOld      = 0x1E
	RecordTimeSlot         = 0x1F
	RecordChat             = 0x20
	RecordChecksum         = 0x22
	RecordUnknown23        = 0x23
	RecordForcedEnd        = 0x2F
	RecordPlayerMetadata   = 0x39
	RecordEndOfStream      = 0x00
)

// fixedRecordSizes lists top-level records whose payload is skipped unparsed.
var fixedRecordSizes = map[uint8]int{
	RecordFirstStart:  4,
	RecordSecondStart: 4,
	RecordThirdStart:  4,
	RecordChecksum:    5,
	RecordUnknown23:   10,
	RecordForcedEnd:   8,
}

// Action opcodes with a dedicated decoder.
const (
	ActionSetSpeed         = 0x03
	ActionSaveGame         = 0x06
	ActionSaveFinished     = 0x07
	ActionAbilityNoParams  = 0x10
	ActionAbilityTargetPos = 0x11
	ActionAbilityPosObject = 0x12
	ActionGiveDropItem     = 0x13
	ActionChangeSelection  = 0x16
	ActionAssignGroup      = 0x17
	ActionTriggerCommand   = 0x60
	ActionScenarioTrigger  = 0x62
	ActionMinimapSignal    = 0x68
)

// numericItemMarker is the high word of an item id that carries an order number
// instead of a four character code.
const numericItemMarker = 0x000D

// chatDedupWindow is how close (in timestamp units) an in-band chat command must be
// to an existing message with the same sender and text to be dropped.
const chatDedupWindow = 500

// actionSkipSizes maps opcodes that carry no decoded payload to the number of
// bytes following the opcode.
var actionSkipSizes = map[uint8]int{
	0x01: 0, // pause
	0x02: 0, // resume
	0x04: 0, // increase speed
	0x05: 0, // decrease speed
	0x14: 43,
	0x18: 2,  // select group
	0x19: 12, // select subgroup
	0x1A: 0,
	0x1B: 9,
	0x1C: 9,
	0x1D: 8,
	0x1E: 5,
	0x20: 0,
	0x21: 8,
	0x22: 0,
	0x23: 0,
	0x24: 0,
	0x25: 0,
	0x26: 0,
	0x27: 5,
	0x29: 0,
	0x2A: 0,
	0x2B: 0,
	0x2C: 0,
	0x2D: 5,
	0x2E: 4,
	0x2F: 0,
	0x30: 0,
	0x31: 0,
	0x32: 0,
	0x50: 5, // ally options
	0x51: 9, // transfer resources
	0x61: 0, // escape
	0x66: 0,
	0x67: 0,
	0x69: 16,
	0x6A: 16,
	0x75: 1,
	0x7A: 20,
	0x7B: 16,
}

// orderNames maps numeric order ids to names.
var orderNames = map[uint16]string{
	3:  "Right-click / Smart",
	4:  "Stop",
	6:  "Move",
	7:  "Attack",
	8:  "Attack Ground",
	12: "Hold Position",
	13: "Patrol",
	19: "Stop",
	89: "Rally Point",
}

// objectNames maps four character object codes to names.
var objectNames = map[string]string{
	// Human
	"halt": "Altar of Kings",
	"hbar": "Barracks",
	"htow": "Town Hall",
	"hkee": "Keep",
	"hcas": "Castle",
	"hhou": "Farm",
	"hpea": "Peasant",
	"hfoo": "Footman",
	"hrif": "Rifleman",
	"hkni": "Knight",
	"hsor": "Sorceress",
	"hmpr": "Priest",
	"Hamg": "Archmage",
	"Hblm": "Blood Mage",
	"Hmkg": "Mountain King",
	"Hpal": "Paladin",

	// Orc
	"oalt": "Altar of Storms",
	"obar": "Barracks",
	"ogre": "Great Hall",
	"ostr": "Stronghold",
	"ofrt": "Fortress",
	"otrb": "Orc Burrow",
	"opeo": "Peon",
	"ogru": "Grunt",
	"ohun": "Headhunter",
	"orai": "Raider",
	"oshm": "Shaman",
	"Obla": "Blademaster",
	"Ofar": "Far Seer",
	"Otch": "Tauren Chieftain",
	"Oshd": "Shadow Hunter",

	// Night Elf
	"eate": "Altar of Elders",
	"eaom": "Ancient of War",
	"etol": "Tree of Life",
	"etoa": "Tree of Ages",
	"etoe": "Tree of Eternity",
	"emow": "Moon Well",
	"ewsp": "Wisp",
	"earc": "Archer",
	"esen": "Huntress",
	"edry": "Dryad",
	"Edem": "Demon Hunter",
	"Ekee": "Keeper of the Grove",
	"Emoo": "Priestess of the Moon",
	"Ewar": "Warden",

	// Undead
	"uaod": "Altar of Darkness",
	"unpl": "Necropolis",
	"unp1": "Halls of the Dead",
	"unp2": "Black Citadel",
	"usep": "Crypt",
	"uzig": "Ziggurat",
	"uaco": "Acolyte",
	"ugho": "Ghoul",
	"ucry": "Crypt Fiend",
	"ugar": "Gargoyle",
	"Udea": "Death Knight",
	"Udre": "Dread Lord",
	"Ulic": "Lich",
	"Ucrl": "Crypt Lord",
}
