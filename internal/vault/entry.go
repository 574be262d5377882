package vault

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/vaultmerge/vaultmerge/internal/clockx"
)

// Entry is a single credential record: a title, a bag of fields, and an
// ordered history of prior versions of itself.
type Entry struct {
	id uuid.UUID

	Title      string
	Fields     map[string]string
	IconNumber int
	IconUUID   uuid.UUID
	TimeInfo   TimeInfo

	group   *Group
	history []*Entry

	updateTimeInfo bool
	signalsBlocked bool
}

// NewEntry returns a new, unparented entry with a fresh UUID.
func NewEntry() *Entry {
	return NewEntryWithUUID(uuid.New())
}

// NewEntryWithUUID returns a new, unparented entry with a caller-supplied
// UUID. Storage layers use this to reconstruct an entry read back from disk
// with its persisted identity intact.
func NewEntryWithUUID(id uuid.UUID) *Entry {
	return &Entry{
		id:             id,
		Fields:         make(map[string]string),
		updateTimeInfo: true,
	}
}

// UUID returns the entry's stable identity.
func (e *Entry) UUID() uuid.UUID { return e.id }

// Group returns the group this entry currently lives in, or nil.
func (e *Entry) Group() *Group { return e.group }

// SetGroup rebinds the entry's parent pointer without touching any group's
// child slice. Tree mutation is done by Database.AttachEntry; this exists so
// that helper exists as a primitive on Entry per the external-interface list.
func (e *Entry) SetGroup(g *Group) { e.group = g }

// CanUpdateTimeInfo reports whether TimeInfo auto-updates on mutation.
func (e *Entry) CanUpdateTimeInfo() bool { return e.updateTimeInfo }

// SetUpdateTimeInfo toggles TimeInfo auto-update, returning the previous value.
func (e *Entry) SetUpdateTimeInfo(v bool) bool {
	prev := e.updateTimeInfo
	e.updateTimeInfo = v
	return prev
}

// BlockSignals toggles change-notification emission, returning the previous
// value. No listener exists in this library today; the seam exists so the
// merge engine's history rewrite can suppress notifications the way the
// original does, ready for a real observer to attach later.
func (e *Entry) BlockSignals(v bool) bool {
	prev := e.signalsBlocked
	e.signalsBlocked = v
	return prev
}

// HistoryItems returns the entry's historical versions, oldest first.
func (e *Entry) HistoryItems() []*Entry {
	out := make([]*Entry, len(e.history))
	copy(out, e.history)
	return out
}

// AddHistoryItem appends item to the history list. item must not itself carry
// a parent group.
func (e *Entry) AddHistoryItem(item *Entry) {
	e.history = append(e.history, item)
}

// RemoveHistoryItems drops every item in items from the history list.
func (e *Entry) RemoveHistoryItems(items []*Entry) {
	if len(items) == 0 {
		return
	}
	remove := make(map[*Entry]bool, len(items))
	for _, it := range items {
		remove[it] = true
	}
	kept := e.history[:0:0]
	for _, it := range e.history {
		if !remove[it] {
			kept = append(kept, it)
		}
	}
	e.history = kept
}

// TruncateHistory drops the oldest history items until at most max remain.
func (e *Entry) TruncateHistory(max int) {
	if max < 0 || len(e.history) <= max {
		return
	}
	e.history = e.history[len(e.history)-max:]
}

// Clone returns a copy of the entry. The clone shares no mutable state with
// the original: Fields is copied, history items are deep-cloned when
// CloneIncludeHistory is set, and the clone starts unparented.
func (e *Entry) Clone(flags CloneFlags) *Entry {
	clone := &Entry{
		id:             e.id,
		Title:          e.Title,
		Fields:         maps.Clone(e.Fields),
		IconNumber:     e.IconNumber,
		IconUUID:       e.IconUUID,
		TimeInfo:       e.TimeInfo,
		updateTimeInfo: true,
	}
	if flags.has(CloneNewUUID) {
		clone.id = uuid.New()
	}
	if flags.has(CloneIncludeHistory) {
		for _, h := range e.history {
			clone.history = append(clone.history, h.Clone(CloneNoFlags))
		}
	}
	return clone
}

// Equals reports whether two entries have equivalent content, subject to flags.
func (e *Entry) Equals(other *Entry, flags CompareFlags) bool {
	if other == nil {
		return false
	}
	if e.id != other.id || e.Title != other.Title || e.IconNumber != other.IconNumber || e.IconUUID != other.IconUUID {
		return false
	}
	if !maps.Equal(e.Fields, other.Fields) {
		return false
	}
	if !timeInfoEqual(e.TimeInfo, other.TimeInfo, flags) {
		return false
	}
	if !flags.has(CompareIgnoreHistory) {
		if len(e.history) != len(other.history) {
			return false
		}
		for i, h := range e.history {
			if !h.Equals(other.history[i], flags) {
				return false
			}
		}
	}
	return true
}

func timeInfoEqual(a, b TimeInfo, flags CompareFlags) bool {
	timesEqual := func(x, y time.Time) bool {
		if flags.has(CompareIgnoreMilliseconds) {
			return clockx.Equal(x, y)
		}
		return x.Equal(y)
	}
	if !timesEqual(a.CreationTime, b.CreationTime) {
		return false
	}
	if !timesEqual(a.LastModificationTime, b.LastModificationTime) {
		return false
	}
	if !timesEqual(a.LastAccessTime, b.LastAccessTime) {
		return false
	}
	if !timesEqual(a.ExpiryTime, b.ExpiryTime) || a.ExpiresEnabled != b.ExpiresEnabled {
		return false
	}
	if !flags.has(CompareIgnoreLocation) {
		if !timesEqual(a.LocationChanged, b.LocationChanged) {
			return false
		}
	}
	return true
}
