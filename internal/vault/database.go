// Package vault implements the data-model primitives the merge engine
// (internal/merge) is written against: Group, Entry, TimeInfo, DeletedObject,
// CustomData and Database. The merge engine's specification treats these as
// an external collaborator it merely calls into; this package is the
// concrete Go implementation of that collaborator.
package vault

import "github.com/google/uuid"

// Database is one credential database: a group tree rooted at Root, a
// tombstone list, and metadata. It exclusively owns every live node and
// tombstone reachable from it, and maintains UUID indices so lookups are
// O(1) instead of a tree walk.
type Database struct {
	root           *Group
	meta           *Metadata
	deletedObjects []DeletedObject
	modified       bool

	entryIndex map[uuid.UUID]*Entry
	groupIndex map[uuid.UUID]*Group
}

// New returns a fresh, empty database with a root group.
func New() *Database {
	root := NewGroup()
	root.Name = "Root"
	db := &Database{
		root:       root,
		meta:       NewMetadata(10),
		entryIndex: make(map[uuid.UUID]*Entry),
		groupIndex: make(map[uuid.UUID]*Group),
	}
	root.db = db
	db.groupIndex[root.id] = root
	return db
}

// RootGroup returns the database's root group.
func (d *Database) RootGroup() *Group { return d.root }

// Metadata returns the database's metadata block.
func (d *Database) Metadata() *Metadata { return d.meta }

// DeletedObjects returns the tombstone list.
func (d *Database) DeletedObjects() []DeletedObject {
	out := make([]DeletedObject, len(d.deletedObjects))
	copy(out, d.deletedObjects)
	return out
}

// SetDeletedObjects replaces the tombstone list wholesale.
func (d *Database) SetDeletedObjects(objs []DeletedObject) {
	d.deletedObjects = append([]DeletedObject(nil), objs...)
}

// MarkAsModified flags the database as having unsaved changes.
func (d *Database) MarkAsModified() { d.modified = true }

// Modified reports whether MarkAsModified has been called since the last reset.
func (d *Database) Modified() bool { return d.modified }

// ResetModified clears the modified flag, e.g. after a successful save.
func (d *Database) ResetModified() { d.modified = false }

// FindEntryByUUID looks up an entry anywhere in the tree by index.
func (d *Database) FindEntryByUUID(id uuid.UUID) *Entry {
	return d.entryIndex[id]
}

// FindGroupByUUID looks up a group anywhere in the tree by index.
func (d *Database) FindGroupByUUID(id uuid.UUID) *Group {
	return d.groupIndex[id]
}

// IndexEntry registers e (and, transitively, does nothing to its history,
// which is never independently addressable) under this database.
func (d *Database) IndexEntry(e *Entry) {
	d.entryIndex[e.id] = e
}

// UnindexEntry removes e from the index.
func (d *Database) UnindexEntry(e *Entry) {
	delete(d.entryIndex, e.id)
}

// IndexGroup registers g under this database.
func (d *Database) IndexGroup(g *Group) {
	d.groupIndex[g.id] = g
}

// UnindexGroup removes g from the index.
func (d *Database) UnindexGroup(g *Group) {
	delete(d.groupIndex, g.id)
}

// AttachEntry moves e into parent: it detaches e from its current group (if
// any), appends it to parent's entry list, rebinds e.group, sets e's database
// to parent's, and (re)indexes e in that database. It does not touch TimeInfo
// or update-suspension flags - callers that need TimeInfo-transparent moves
// go through the merge package's moveEntry, which wraps this with suspension.
func (d *Database) AttachEntry(e *Entry, parent *Group) {
	if e.group == parent {
		return
	}
	if e.group != nil {
		detachEntry(e.group, e)
		if e.group.db != nil {
			e.group.db.UnindexEntry(e)
		}
	}
	parent.entries = append(parent.entries, e)
	e.group = parent
	if parent.db != nil {
		parent.db.IndexEntry(e)
	}
}

// AttachGroup moves g into parent, symmetric to AttachEntry.
func (d *Database) AttachGroup(g *Group, parent *Group) {
	if g.parent == parent {
		return
	}
	if g.parent != nil {
		detachGroup(g.parent, g)
	}
	oldDB := g.db
	if oldDB != nil && oldDB != parent.db {
		unindexSubtree(oldDB, g)
	}
	parent.children = append(parent.children, g)
	g.parent = parent
	g.db = parent.db
	if parent.db != nil {
		indexSubtree(parent.db, g)
	}
}

// RemoveEntryWithoutTombstone detaches and unindexes e without recording a
// tombstone. The caller (the merge package's eraseEntry) is responsible for tombstone
// bookkeeping; this is the "explicit removeWithoutTombstone primitive" the
// spec's design notes ask for in place of the original's destructor games.
func (d *Database) RemoveEntryWithoutTombstone(e *Entry) {
	if e.group != nil {
		detachEntry(e.group, e)
	}
	d.UnindexEntry(e)
	e.group = nil
}

// RemoveGroupWithoutTombstone detaches and unindexes g (and, defensively, any
// descendants still reachable from it) without recording a tombstone.
func (d *Database) RemoveGroupWithoutTombstone(g *Group) {
	if g.parent != nil {
		detachGroup(g.parent, g)
	}
	unindexSubtree(d, g)
	g.parent = nil
}

func detachEntry(parent *Group, e *Entry) {
	for i, x := range parent.entries {
		if x == e {
			parent.entries = append(parent.entries[:i], parent.entries[i+1:]...)
			return
		}
	}
}

func detachGroup(parent *Group, g *Group) {
	for i, x := range parent.children {
		if x == g {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

func indexSubtree(db *Database, g *Group) {
	db.IndexGroup(g)
	g.db = db
	for _, e := range g.entries {
		db.IndexEntry(e)
	}
	for _, c := range g.children {
		indexSubtree(db, c)
	}
}

func unindexSubtree(db *Database, g *Group) {
	db.UnindexGroup(g)
	for _, e := range g.entries {
		db.UnindexEntry(e)
	}
	for _, c := range g.children {
		unindexSubtree(db, c)
	}
}

// RebuildIndex clears and repopulates the UUID indices by walking the tree
// from Root. Used after loading a database from storage.
func (d *Database) RebuildIndex() {
	d.entryIndex = make(map[uuid.UUID]*Entry)
	d.groupIndex = make(map[uuid.UUID]*Group)
	indexSubtree(d, d.root)
}
