package domain

type entryKind uint8

const (
	entryInvalid entryKind = iota
	entryBare
	entryRecord
)

// RosterEntry is one player slot of a faction. Upstream sends either a bare
// player id or an object carrying a player_id field.
type RosterEntry struct {
	kind     entryKind
	id       string
	nickname string
}

func BareEntry(id string) RosterEntry {
	return RosterEntry{kind: entryBare, id: id}
}

func RecordEntry(id, nickname string) RosterEntry {
	return RosterEntry{kind: entryRecord, id: id, nickname: nickname}
}

// PlayerID is the only way to read the id out of an entry.
func (e RosterEntry) PlayerID() (string, bool) {
	if e.kind == entryInvalid || e.id == "" {
		return "", false
	}
	return e.id, true
}

func (e RosterEntry) Nickname() string {
	return e.nickname
}

func (e RosterEntry) IsRecord() bool {
	return e.kind == entryRecord
}

func (e RosterEntry) Is(playerID string) bool {
	id, ok := e.PlayerID()
	return ok && playerID != "" && id == playerID
}
