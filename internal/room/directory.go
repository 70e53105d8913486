package room

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Member is one username held by one connection inside a room.
type Member struct {
	Username string `json:"username"`
	ConnID   ConnID `json:"connectionId"`
}

// Summary describes an active room for introspection endpoints.
type Summary struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

type roomEntry struct {
	members map[string]Member // folded username -> member
	order   []string          // folded usernames in join order
}

// Directory maps room ids to their members. Rooms exist only while they
// have at least one member. It is not safe for concurrent use.
type Directory struct {
	rooms map[string]*roomEntry
	// cases.Caser carries state, so one per directory under the caller's lock.
	caser cases.Caser
}

// NewDirectory creates an empty room directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*roomEntry),
		caser: cases.Fold(),
	}
}

// Fold returns the case-insensitive comparison key for a username.
func (d *Directory) Fold(username string) string {
	return d.caser.String(username)
}

// EnsureRoom creates the room if it does not exist yet.
func (d *Directory) EnsureRoom(id string) {
	if _, ok := d.rooms[id]; !ok {
		d.rooms[id] = &roomEntry{members: make(map[string]Member)}
	}
}

// AddMember adds username to the room, creating the room if needed.
// Re-adding the same username for the same connection is a no-op; any
// other connection already holding the folded username is a conflict.
func (d *Directory) AddMember(id, username string, conn ConnID) error {
	d.EnsureRoom(id)
	entry := d.rooms[id]
	key := d.Fold(username)
	if existing, ok := entry.members[key]; ok {
		if existing.ConnID == conn {
			return nil
		}
		return usernameTaken(username)
	}
	entry.members[key] = Member{Username: username, ConnID: conn}
	entry.order = append(entry.order, key)
	return nil
}

// RemoveMember removes username from the room and deletes the room when
// it becomes empty. It reports whether a member was removed.
func (d *Directory) RemoveMember(id, username string) bool {
	entry, ok := d.rooms[id]
	if !ok {
		return false
	}
	key := d.Fold(username)
	if _, ok := entry.members[key]; !ok {
		return false
	}
	delete(entry.members, key)
	if i := slices.Index(entry.order, key); i >= 0 {
		entry.order = slices.Delete(entry.order, i, i+1)
	}
	d.DeleteIfEmpty(id)
	return true
}

// ListMembers returns the room's members in join order, or nil when the
// room does not exist.
func (d *Directory) ListMembers(id string) []Member {
	entry, ok := d.rooms[id]
	if !ok {
		return nil
	}
	members := make([]Member, 0, len(entry.order))
	for _, key := range entry.order {
		members = append(members, entry.members[key])
	}
	return members
}

// Holder returns the member holding username in the room, compared case-insensitively.
func (d *Directory) Holder(id, username string) (Member, bool) {
	entry, ok := d.rooms[id]
	if !ok {
		return Member{}, false
	}
	m, ok := entry.members[d.Fold(username)]
	return m, ok
}

// IsEmpty reports whether the room has no members. Unknown rooms are empty.
func (d *Directory) IsEmpty(id string) bool {
	entry, ok := d.rooms[id]
	return !ok || len(entry.members) == 0
}

// DeleteIfEmpty drops the room entry when it has no members and reports
// whether it did so.
func (d *Directory) DeleteIfEmpty(id string) bool {
	entry, ok := d.rooms[id]
	if !ok || len(entry.members) > 0 {
		return false
	}
	delete(d.rooms, id)
	return true
}

// Exists reports whether the room is active.
func (d *Directory) Exists(id string) bool {
	_, ok := d.rooms[id]
	return ok
}

// Rooms lists active rooms ordered by id.
func (d *Directory) Rooms() []Summary {
	summaries := make([]Summary, 0, len(d.rooms))
	for id, entry := range d.rooms {
		summaries = append(summaries, Summary{ID: id, Members: len(entry.members)})
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		return strings.Compare(a.ID, b.ID)
	})
	return summaries
}

// Len returns the number of active rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
