package chatasset

// messageTypes is the complete, fixed MSG_* identifier table. Identifiers
// are matched case-insensitively (ASCII only); anything not in this table
// yields 0, signalling "unknown, discard the template".
var messageTypes = map[string]uint32{
	"MSG_DEATH":                  1,
	"MSG_ENTERGAME":              2,
	"MSG_HELP":                   3,
	"MSG_ACCOMPANY":              4,
	"MSG_DEFENDKEYAREA":          5,
	"MSG_RUSHBASE":               6,
	"MSG_GETFLAG":                7,
	"MSG_STARTTEAMLEADERSHIP":    8,
	"MSG_STOPTEAMLEADERSHIP":     9,
	"MSG_WAIT":                   10,
	"MSG_WHATAREYOUDOING":        11,
	"MSG_JOINSUBTEAM":            12,
	"MSG_LEAVESUBTEAM":           13,
	"MSG_CREATENEWFORMATION":     14,
	"MSG_FORMATIONPOSITION":      15,
	"MSG_FORMATIONSPACE":         16,
	"MSG_DOFORMATION":            17,
	"MSG_DISMISS":                18,
	"MSG_CAMP":                   19,
	"MSG_CHECKPOINT":             20,
	"MSG_PATROL":                 21,
}

// EnterGameMessageType is the well-known message type BotEnterChat always
// queries (MSG_ENTERGAME).
const EnterGameMessageType uint32 = 2

// MessageTypeFromIdentifier maps an MSG_* identifier to its numeric code,
// case-insensitively (ASCII only). Returns 0 for any identifier not in the
// fixed 21-entry table.
func MessageTypeFromIdentifier(ident string) uint32 {
	upper := make([]byte, len(ident))
	for i := 0; i < len(ident); i++ {
		upper[i] = asciiUpper(ident[i])
	}
	return messageTypes[string(upper)]
}
