package vault

import (
	"github.com/google/uuid"
)

// Group is a container node in the credential tree: it owns an ordered list
// of subgroups and an ordered list of entries.
type Group struct {
	id uuid.UUID

	Name       string
	Notes      string
	IconNumber int
	IconUUID   uuid.UUID
	TimeInfo   TimeInfo
	MergeMode  MergeMode

	parent   *Group
	children []*Group
	entries  []*Entry
	db       *Database

	updateTimeInfo bool
}

// NewGroup returns a new, unparented group with a fresh UUID.
func NewGroup() *Group {
	return NewGroupWithUUID(uuid.New())
}

// NewGroupWithUUID returns a new, unparented group with a caller-supplied
// UUID, for the same reconstruction-from-storage reason as NewEntryWithUUID.
func NewGroupWithUUID(id uuid.UUID) *Group {
	return &Group{id: id, updateTimeInfo: true}
}

// UUID returns the group's stable identity.
func (g *Group) UUID() uuid.UUID { return g.id }

// Parent returns the containing group, or nil for the root group.
func (g *Group) Parent() *Group { return g.parent }

// SetParent rebinds the group's parent pointer. Like Entry.SetGroup, this is
// a primitive; Database.AttachGroup is what actually moves children slices.
func (g *Group) SetParent(p *Group) { g.parent = p }

// Database returns the database this group belongs to, or nil if detached.
func (g *Group) Database() *Database { return g.db }

// Children returns the group's direct subgroups in order.
func (g *Group) Children() []*Group {
	out := make([]*Group, len(g.children))
	copy(out, g.children)
	return out
}

// Entries returns the group's direct entries in order.
func (g *Group) Entries() []*Entry {
	out := make([]*Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// CanUpdateTimeInfo reports whether TimeInfo auto-updates on mutation.
func (g *Group) CanUpdateTimeInfo() bool { return g.updateTimeInfo }

// SetUpdateTimeInfo toggles TimeInfo auto-update, returning the previous value.
func (g *Group) SetUpdateTimeInfo(v bool) bool {
	prev := g.updateTimeInfo
	g.updateTimeInfo = v
	return prev
}

// FindEntryByUUID searches this group's subtree (entries and all descendant
// groups' entries) for id.
func (g *Group) FindEntryByUUID(id uuid.UUID) *Entry {
	for _, e := range g.entries {
		if e.id == id {
			return e
		}
	}
	for _, c := range g.children {
		if found := c.FindEntryByUUID(id); found != nil {
			return found
		}
	}
	return nil
}

// FindGroupByUUID searches this group and its subtree for id.
func (g *Group) FindGroupByUUID(id uuid.UUID) *Group {
	if g.id == id {
		return g
	}
	for _, c := range g.children {
		if found := c.FindGroupByUUID(id); found != nil {
			return found
		}
	}
	return nil
}

// EntriesRecursive returns every entry in this group's subtree.
func (g *Group) EntriesRecursive() []*Entry {
	out := append([]*Entry(nil), g.entries...)
	for _, c := range g.children {
		out = append(out, c.EntriesRecursive()...)
	}
	return out
}

// GroupsRecursive returns every descendant subgroup (not including g itself).
func (g *Group) GroupsRecursive() []*Group {
	var out []*Group
	for _, c := range g.children {
		out = append(out, c)
		out = append(out, c.GroupsRecursive()...)
	}
	return out
}

// FullPath renders the breadcrumb from the root to this group, joined by "/".
func (g *Group) FullPath() string {
	if g.parent == nil {
		return g.Name
	}
	parent := g.parent.FullPath()
	if parent == "" {
		return g.Name
	}
	return parent + "/" + g.Name
}

// Clone copies this group's own fields. Per the structural merge algorithm,
// a plain Clone is always shallow (no entries, no children) - callers pass
// entryFlags/groupFlags only when they explicitly want a recursive copy, e.g.
// duplicating a whole subtree for a manual "copy group" UI action.
func (g *Group) Clone(entryFlags CloneFlags, groupFlags CloneFlags) *Group {
	clone := &Group{
		id:             g.id,
		Name:           g.Name,
		Notes:          g.Notes,
		IconNumber:     g.IconNumber,
		IconUUID:       g.IconUUID,
		TimeInfo:       g.TimeInfo,
		MergeMode:      g.MergeMode,
		updateTimeInfo: true,
	}
	if groupFlags.has(CloneNewUUID) {
		clone.id = uuid.New()
	}
	if groupFlags.has(CloneIncludeEntries) {
		for _, e := range g.entries {
			ce := e.Clone(entryFlags)
			ce.group = clone
			clone.entries = append(clone.entries, ce)
		}
	}
	if groupFlags.has(CloneIncludeChildren) {
		for _, c := range g.children {
			cc := c.Clone(entryFlags, groupFlags)
			cc.parent = clone
			clone.children = append(clone.children, cc)
		}
	}
	return clone
}
