package merge

import (
	"github.com/google/uuid"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// mergeDeletions is §4.2: it only ever runs for MergeModeSynchronize, and it
// applies the union of both databases' tombstones, keeping the earliest
// deletion time per UUID, then actually erases any still-live node whose
// tombstone applies and which was not modified after its deletion time.
func (m *Merger) mergeDeletions(ctx mergeContext) ChangeList {
	var changes ChangeList

	if m.effectiveMode(ctx.targetGroup) != vault.MergeModeSynchronize {
		return changes
	}

	targetDeletions := ctx.targetDB.DeletedObjects()
	sourceDeletions := ctx.sourceDB.DeletedObjects()

	merged := make(map[uuid.UUID]vault.DeletedObject)
	var finalDeletions []vault.DeletedObject
	var pendingEntries []*vault.Entry
	var pendingGroups []*vault.Group

	consider := func(obj vault.DeletedObject) {
		if existing, ok := merged[obj.UUID]; ok {
			if existing.DeletionTime.After(obj.DeletionTime) {
				merged[obj.UUID] = obj
			}
			return
		}
		merged[obj.UUID] = obj

		if entry := ctx.targetDB.FindEntryByUUID(obj.UUID); entry != nil {
			pendingEntries = append(pendingEntries, entry)
			return
		}
		if group := ctx.targetDB.FindGroupByUUID(obj.UUID); group != nil {
			pendingGroups = append(pendingGroups, group)
			return
		}
		finalDeletions = append(finalDeletions, obj)
	}
	for _, obj := range targetDeletions {
		consider(obj)
	}
	for _, obj := range sourceDeletions {
		consider(obj)
	}

	for len(pendingEntries) > 0 {
		entry := pendingEntries[0]
		pendingEntries = pendingEntries[1:]

		obj := merged[entry.UUID()]
		if entry.TimeInfo.LastModificationTime.After(obj.DeletionTime) {
			// keep: it was changed after the deletion date
			continue
		}
		finalDeletions = append(finalDeletions, obj)
		if entry.Group() != nil {
			changes = append(changes, changeForEntry(m.tr, Deleted, entry, "Deleting child"))
		} else {
			changes = append(changes, changeForEntry(m.tr, Deleted, entry, "Deleting orphan"))
		}
		m.eraseEntry(entry)
	}

	remaining := len(pendingGroups)
	nonProgress := 0
	for len(pendingGroups) > 0 {
		group := pendingGroups[0]
		pendingGroups = pendingGroups[1:]

		if groupHasPendingChild(group, pendingGroups) {
			pendingGroups = append(pendingGroups, group)
			nonProgress++
			if nonProgress > remaining+1 {
				// every remaining group depends on another remaining group:
				// a cycle, or a bug elsewhere. Stop instead of looping forever.
				break
			}
			continue
		}
		nonProgress = 0
		remaining = len(pendingGroups)

		obj := merged[group.UUID()]
		if group.TimeInfo.LastModificationTime.After(obj.DeletionTime) {
			continue
		}
		if len(group.EntriesRecursive()) > 0 || len(group.GroupsRecursive()) > 0 {
			continue
		}
		finalDeletions = append(finalDeletions, obj)
		if group.Parent() != nil {
			changes = append(changes, changeForGroup(m.tr, Deleted, group, "Deleting child"))
		} else {
			changes = append(changes, changeForGroup(m.tr, Deleted, group, "Deleting orphan"))
		}
		m.eraseGroup(group)
	}

	if !deletedObjectsEqual(finalDeletions, ctx.targetDB.DeletedObjects()) {
		changes = append(changes, changeUnspecified(m.tr, "Changed deleted objects"))
	}
	ctx.targetDB.SetDeletedObjects(finalDeletions)
	return changes
}

func groupHasPendingChild(group *vault.Group, pending []*vault.Group) bool {
	children := group.Children()
	for _, c := range children {
		for _, p := range pending {
			if c == p {
				return true
			}
		}
	}
	return false
}

func deletedObjectsEqual(a, b []vault.DeletedObject) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].UUID != b[i].UUID || !a[i].DeletionTime.Equal(b[i].DeletionTime) {
			return false
		}
	}
	return true
}
