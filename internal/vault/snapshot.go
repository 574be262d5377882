package vault

import (
	"errors"

	"github.com/google/uuid"
)

var (
	errCycleInSnapshot = errors.New("vault: snapshot groups form a cycle or reference a missing parent")
	errDanglingEntry   = errors.New("vault: snapshot entry references a group that is not present")
)

// Snapshot is the wire/storage form of a Database: a flat, JSON-friendly
// representation of the group tree, entries, history, tombstones, and
// metadata. Transport (the sync RPC) and any storage layer that doesn't want
// to hand-roll its own row mapping serialize through this type rather than
// the live Database, whose group/entry graph carries unexported back-pointers.
type Snapshot struct {
	Groups         []GroupSnapshot  `json:"groups"`
	Entries        []EntrySnapshot  `json:"entries"`
	DeletedObjects []DeletedObject  `json:"deletedObjects"`
	Metadata       MetadataSnapshot `json:"metadata"`
}

// GroupSnapshot is one group. The root group is included with ParentID the
// zero UUID; every other group's ParentID names its parent's ID.
type GroupSnapshot struct {
	ID         uuid.UUID `json:"id"`
	ParentID   uuid.UUID `json:"parentId"`
	Name       string    `json:"name"`
	Notes      string    `json:"notes"`
	IconNumber int       `json:"iconNumber"`
	IconUUID   uuid.UUID `json:"iconUuid"`
	MergeMode  MergeMode `json:"mergeMode"`
	TimeInfo   TimeInfo  `json:"timeInfo"`
}

// EntrySnapshot is one entry plus its history, ordered oldest first.
type EntrySnapshot struct {
	ID         uuid.UUID         `json:"id"`
	GroupID    uuid.UUID         `json:"groupId"`
	Title      string            `json:"title"`
	Fields     map[string]string `json:"fields"`
	IconNumber int               `json:"iconNumber"`
	IconUUID   uuid.UUID         `json:"iconUuid"`
	TimeInfo   TimeInfo          `json:"timeInfo"`
	History    []EntryVersion    `json:"history,omitempty"`
}

// EntryVersion is one historical version of an entry: everything about
// EntrySnapshot except identity, which is implicit (it belongs to the
// enclosing EntrySnapshot's ID).
type EntryVersion struct {
	Title      string            `json:"title"`
	Fields     map[string]string `json:"fields"`
	IconNumber int               `json:"iconNumber"`
	IconUUID   uuid.UUID         `json:"iconUuid"`
	TimeInfo   TimeInfo          `json:"timeInfo"`
}

// MetadataSnapshot is Metadata in slice form, preserving CustomData and
// custom-icon insertion order the way Metadata itself does.
type MetadataSnapshot struct {
	HistoryMaxItems int                `json:"historyMaxItems"`
	CustomData      []CustomDataEntry  `json:"customData,omitempty"`
	CustomIcons     []CustomIconEntry  `json:"customIcons,omitempty"`
}

// CustomDataEntry is one CustomData key/value pair.
type CustomDataEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Protected bool   `json:"protected"`
}

// CustomIconEntry is one custom icon.
type CustomIconEntry struct {
	UUID uuid.UUID `json:"uuid"`
	Data []byte    `json:"data"`
}

// ToSnapshot flattens db into a Snapshot.
func (d *Database) ToSnapshot() *Snapshot {
	snap := &Snapshot{
		DeletedObjects: d.DeletedObjects(),
		Metadata: MetadataSnapshot{
			HistoryMaxItems: d.meta.HistoryMaxItems,
		},
	}

	snap.Groups = append(snap.Groups, GroupSnapshot{
		ID: d.root.id, Name: d.root.Name, Notes: d.root.Notes,
		IconNumber: d.root.IconNumber, IconUUID: d.root.IconUUID,
		MergeMode: d.root.MergeMode, TimeInfo: d.root.TimeInfo,
	})
	for _, g := range d.root.GroupsRecursive() {
		snap.Groups = append(snap.Groups, GroupSnapshot{
			ID: g.id, ParentID: g.parent.id, Name: g.Name, Notes: g.Notes,
			IconNumber: g.IconNumber, IconUUID: g.IconUUID,
			MergeMode: g.MergeMode, TimeInfo: g.TimeInfo,
		})
	}

	for _, e := range d.root.EntriesRecursive() {
		es := EntrySnapshot{
			ID: e.id, GroupID: e.group.id, Title: e.Title, Fields: e.Fields,
			IconNumber: e.IconNumber, IconUUID: e.IconUUID, TimeInfo: e.TimeInfo,
		}
		for _, h := range e.HistoryItems() {
			es.History = append(es.History, EntryVersion{
				Title: h.Title, Fields: h.Fields, IconNumber: h.IconNumber,
				IconUUID: h.IconUUID, TimeInfo: h.TimeInfo,
			})
		}
		snap.Entries = append(snap.Entries, es)
	}

	for _, key := range d.meta.CustomData.Keys() {
		snap.Metadata.CustomData = append(snap.Metadata.CustomData, CustomDataEntry{
			Key: key, Value: d.meta.CustomData.Value(key), Protected: d.meta.CustomData.IsProtected(key),
		})
	}
	for _, id := range d.meta.CustomIconsOrder() {
		snap.Metadata.CustomIcons = append(snap.Metadata.CustomIcons, CustomIconEntry{
			UUID: id, Data: d.meta.CustomIcon(id),
		})
	}

	return snap
}

// FromSnapshot rebuilds a live Database from a Snapshot. Groups may appear in
// any order; a group is attached once its parent has already been attached,
// with repeated passes over the remaining rows until none progress.
func FromSnapshot(snap *Snapshot) (*Database, error) {
	db := New()
	nodes := map[uuid.UUID]*Group{db.root.id: db.root}

	pending := make([]GroupSnapshot, 0, len(snap.Groups))
	for _, gs := range snap.Groups {
		if gs.ParentID == uuid.Nil {
			delete(db.groupIndex, db.root.id)
			delete(nodes, db.root.id)
			db.root.id = gs.ID
			db.groupIndex[gs.ID] = db.root
			nodes[gs.ID] = db.root
			db.root.Name = gs.Name
			db.root.Notes = gs.Notes
			db.root.IconNumber = gs.IconNumber
			db.root.IconUUID = gs.IconUUID
			db.root.MergeMode = gs.MergeMode
			db.root.TimeInfo = gs.TimeInfo
			continue
		}
		pending = append(pending, gs)
	}

	for len(pending) > 0 {
		var next []GroupSnapshot
		progressed := false
		for _, gs := range pending {
			parent, ok := nodes[gs.ParentID]
			if !ok {
				next = append(next, gs)
				continue
			}
			g := NewGroupWithUUID(gs.ID)
			g.Name = gs.Name
			g.Notes = gs.Notes
			g.IconNumber = gs.IconNumber
			g.IconUUID = gs.IconUUID
			g.MergeMode = gs.MergeMode
			g.TimeInfo = gs.TimeInfo
			db.AttachGroup(g, parent)
			nodes[gs.ID] = g
			progressed = true
		}
		if !progressed {
			return nil, errCycleInSnapshot
		}
		pending = next
	}

	for _, es := range snap.Entries {
		group, ok := nodes[es.GroupID]
		if !ok {
			return nil, errDanglingEntry
		}
		e := NewEntryWithUUID(es.ID)
		e.Title = es.Title
		e.Fields = es.Fields
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.IconNumber = es.IconNumber
		e.IconUUID = es.IconUUID
		e.TimeInfo = es.TimeInfo
		db.AttachEntry(e, group)
		for _, hv := range es.History {
			h := NewEntryWithUUID(es.ID)
			h.Title = hv.Title
			h.Fields = hv.Fields
			h.IconNumber = hv.IconNumber
			h.IconUUID = hv.IconUUID
			h.TimeInfo = hv.TimeInfo
			e.AddHistoryItem(h)
		}
	}

	db.SetDeletedObjects(snap.DeletedObjects)
	db.meta.HistoryMaxItems = snap.Metadata.HistoryMaxItems
	for _, cd := range snap.Metadata.CustomData {
		db.meta.CustomData.Set(cd.Key, cd.Value, cd.Protected)
	}
	for _, ci := range snap.Metadata.CustomIcons {
		db.meta.AddCustomIcon(ci.UUID, ci.Data)
	}

	db.RebuildIndex()
	db.ResetModified()
	return db, nil
}
