package merge

import (
	"github.com/vaultmerge/vaultmerge/internal/clockx"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// mergeGroup is §4.1: for every entry and every subgroup of
// ctx.sourceGroup, either create it under ctx.targetGroup or reconcile it
// with its UUID-matched counterpart, then recurse into subgroups.
func (m *Merger) mergeGroup(ctx mergeContext) ChangeList {
	var changes ChangeList

	for _, sourceEntry := range ctx.sourceGroup.Entries() {
		targetEntry := ctx.targetDB.FindEntryByUUID(sourceEntry.UUID())
		if targetEntry == nil {
			changes = append(changes, changeForEntry(m.tr, Added, sourceEntry, "Creating missing"))
			clone := sourceEntry.Clone(vault.CloneIncludeHistory)
			m.moveEntry(clone, ctx.targetGroup)
			continue
		}

		locationChanged := clockx.Compare(targetEntry.TimeInfo.LocationChanged, sourceEntry.TimeInfo.LocationChanged, false) < 0
		if locationChanged && targetEntry.Group() != ctx.targetGroup {
			changes = append(changes, changeForEntry(m.tr, Moved, sourceEntry, "Relocating"))
			m.moveEntry(targetEntry, ctx.targetGroup)
		}
		changes = append(changes, m.resolveEntryConflict(ctx, sourceEntry, targetEntry)...)
	}

	for _, sourceChild := range ctx.sourceGroup.Children() {
		targetChild := ctx.targetDB.FindGroupByUUID(sourceChild.UUID())
		if targetChild == nil {
			changes = append(changes, changeForGroup(m.tr, Added, sourceChild, "Creating missing"))
			targetChild = sourceChild.Clone(vault.CloneNoFlags, vault.CloneNoFlags)
			m.moveGroup(targetChild, ctx.targetGroup)
			targetChild.TimeInfo.LocationChanged = sourceChild.TimeInfo.LocationChanged
		} else {
			locationChanged := clockx.Compare(targetChild.TimeInfo.LocationChanged, sourceChild.TimeInfo.LocationChanged, false) < 0
			if locationChanged && targetChild.Parent() != ctx.targetGroup {
				changes = append(changes, changeForGroup(m.tr, Moved, sourceChild, "Relocating"))
				m.moveGroup(targetChild, ctx.targetGroup)
				targetChild.TimeInfo.LocationChanged = sourceChild.TimeInfo.LocationChanged
			}
			changes = append(changes, m.resolveGroupConflict(ctx, sourceChild, targetChild)...)
		}

		sub := mergeContext{
			sourceDB:    ctx.sourceDB,
			targetDB:    ctx.targetDB,
			sourceGroup: sourceChild,
			targetGroup: targetChild,
		}
		changes = append(changes, m.mergeGroup(sub)...)
	}

	return changes
}

// resolveGroupConflict is §4.1.2.
func (m *Merger) resolveGroupConflict(ctx mergeContext, source, target *vault.Group) ChangeList {
	var changes ChangeList

	if clockx.Compare(target.TimeInfo.LastModificationTime, source.TimeInfo.LastModificationTime, true) < 0 {
		changes = append(changes, changeForGroup(m.tr, Modified, source, "Overwriting group properties"))
		target.Name = source.Name
		target.Notes = source.Notes
		if source.IconNumber == 0 {
			target.IconUUID = source.IconUUID
		} else {
			target.IconNumber = source.IconNumber
		}
		target.TimeInfo.ExpiryTime = source.TimeInfo.ExpiryTime
		target.TimeInfo.ExpiresEnabled = source.TimeInfo.ExpiresEnabled
		target.TimeInfo.LastModificationTime = source.TimeInfo.LastModificationTime
	}
	return changes
}

// resolveEntryConflict is §4.1.1: it picks the effective merge mode and
// delegates to the history merge regardless of that mode, since history
// merging itself is mode-independent - only deletion propagation (§4.2)
// varies by mode.
func (m *Merger) resolveEntryConflict(ctx mergeContext, source, target *vault.Entry) ChangeList {
	mode := m.effectiveMode(ctx.targetGroup)
	return m.resolveEntryConflictMergeHistories(ctx, source, target, mode)
}

func (m *Merger) resolveEntryConflictMergeHistories(ctx mergeContext, source, target *vault.Entry, mode vault.MergeMode) ChangeList {
	var changes ChangeList

	comparison := clockx.Compare(target.TimeInfo.LastModificationTime, source.TimeInfo.LastModificationTime, true)
	maxItems := ctx.targetDB.Metadata().HistoryMaxItems

	if comparison == 0 && !target.Equals(source, vault.CompareIgnoreMilliseconds|vault.CompareIgnoreHistory|vault.CompareIgnoreLocation) {
		m.logger.Warn(nil, "entry has conflicting concurrent edits, conflict resolution may lose data",
			"entry_title", source.Title, "entry_uuid", source.UUID())
	}

	if comparison < 0 {
		currentGroup := target.Group()
		clone := source.Clone(vault.CloneIncludeHistory)
		changes = append(changes, changeForEntry(m.tr, Modified, target, "Synchronizing from newer source"))
		m.mergeHistory(target, clone, mode, maxItems)
		m.eraseEntry(target)
		m.moveEntry(clone, currentGroup)
	} else {
		changed := m.mergeHistory(source, target, mode, maxItems)
		if changed {
			changes = append(changes, changeForEntry(m.tr, Modified, target, "Synchronizing from older source"))
		}
	}
	return changes
}
