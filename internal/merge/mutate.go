package merge

import "github.com/vaultmerge/vaultmerge/internal/vault"

// moveEntry relocates entry into targetGroup without perturbing any
// TimeInfo.LastModificationTime along the way: TimeInfo auto-update is
// suspended on the entry and on both the source and destination groups for
// the duration of the move. It is a no-op if entry is already in
// targetGroup.
func (m *Merger) moveEntry(entry *vault.Entry, targetGroup *vault.Group) {
	sourceGroup := entry.Group()
	if sourceGroup == targetGroup {
		return
	}

	nodes := []vault.TimeInfoUpdatable{entry}
	if sourceGroup != nil {
		nodes = append(nodes, sourceGroup)
	}
	if targetGroup != nil {
		nodes = append(nodes, targetGroup)
	}
	restore := vault.SuspendTimeInfo(nodes...)
	defer restore()

	m.context.targetDB.AttachEntry(entry, targetGroup)
}

// moveGroup is moveEntry's group counterpart.
func (m *Merger) moveGroup(group *vault.Group, targetGroup *vault.Group) {
	sourceGroup := group.Parent()
	if sourceGroup == targetGroup {
		return
	}

	nodes := []vault.TimeInfoUpdatable{group}
	if sourceGroup != nil {
		nodes = append(nodes, sourceGroup)
	}
	if targetGroup != nil {
		nodes = append(nodes, targetGroup)
	}
	restore := vault.SuspendTimeInfo(nodes...)
	defer restore()

	m.context.targetDB.AttachGroup(group, targetGroup)
}

// eraseEntry removes entry from its database permanently and without
// recording a tombstone: callers that erase as part of deletion
// reconciliation (§4.2) add the tombstone themselves, and callers that erase
// as part of history-rewrite replacement (§4.1.1) never want a tombstone for
// the superseded copy at all.
func (m *Merger) eraseEntry(entry *vault.Entry) {
	parent := entry.Group()
	var restore func()
	if parent != nil {
		restore = vault.SuspendTimeInfo(parent)
	}
	m.context.targetDB.RemoveEntryWithoutTombstone(entry)
	if restore != nil {
		restore()
	}
}

// eraseGroup is eraseEntry's group counterpart.
func (m *Merger) eraseGroup(group *vault.Group) {
	parent := group.Parent()
	var restore func()
	if parent != nil {
		restore = vault.SuspendTimeInfo(parent)
	}
	m.context.targetDB.RemoveGroupWithoutTombstone(group)
	if restore != nil {
		restore()
	}
}
