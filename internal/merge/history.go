package merge

import (
	"sort"
	"time"

	"github.com/vaultmerge/vaultmerge/internal/clockx"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// mergeHistory is §4.1.3: it merges sourceEntry's history into targetEntry's,
// keyed by second-truncated LastModificationTime, then decides whether the
// result differs from targetEntry's current history closely enough (within
// maxItems of the tail) to be worth writing back. It never mutates
// sourceEntry. mergeMethod is accepted for symmetry with the original
// algorithm's signature but does not affect history merging - only deletion
// propagation is mode-sensitive.
func (m *Merger) mergeHistory(sourceEntry, targetEntry *vault.Entry, mergeMethod vault.MergeMode, maxItems int) bool {
	targetHistory := targetEntry.HistoryItems()
	sourceHistory := sourceEntry.HistoryItems()

	comparison := clockx.Compare(targetEntry.TimeInfo.LastModificationTime, sourceEntry.TimeInfo.LastModificationTime, true)
	preferLocal := comparison < 0
	preferRemote := comparison > 0

	merged := make(map[time.Time]*vault.Entry)

	for _, item := range targetHistory {
		key := clockx.Serialized(item.TimeInfo.LastModificationTime)
		if existing, ok := merged[key]; ok && !existing.Equals(item, vault.CompareIgnoreMilliseconds) {
			m.logger.Warn(nil, "inconsistent history entry contains conflicting changes, conflict resolution may lose data",
				"entry_title", sourceEntry.Title, "entry_uuid", sourceEntry.UUID(), "modification_time", key)
		}
		merged[key] = item.Clone(vault.CloneNoFlags)
	}
	for _, item := range sourceHistory {
		key := clockx.Serialized(item.TimeInfo.LastModificationTime)
		if existing, ok := merged[key]; ok && !existing.Equals(item, vault.CompareIgnoreMilliseconds) {
			m.logger.Warn(nil, "history entry contains conflicting changes, conflict resolution may lose data",
				"entry_title", sourceEntry.Title, "entry_uuid", sourceEntry.UUID(), "modification_time", key)
		}
		if preferRemote {
			delete(merged, key)
		}
		if _, ok := merged[key]; !ok {
			merged[key] = item.Clone(vault.CloneNoFlags)
		}
	}

	targetModTime := clockx.Serialized(targetEntry.TimeInfo.LastModificationTime)
	sourceModTime := clockx.Serialized(sourceEntry.TimeInfo.LastModificationTime)

	if targetModTime.Equal(sourceModTime) &&
		!targetEntry.Equals(sourceEntry, vault.CompareIgnoreMilliseconds|vault.CompareIgnoreHistory|vault.CompareIgnoreLocation) {
		m.logger.Warn(nil, "entry contains conflicting changes, conflict resolution may lose data",
			"entry_title", sourceEntry.Title, "entry_uuid", sourceEntry.UUID())
	}

	switch {
	case targetModTime.Before(sourceModTime):
		if preferLocal {
			delete(merged, targetModTime)
		}
		if _, ok := merged[targetModTime]; !ok {
			merged[targetModTime] = targetEntry.Clone(vault.CloneNoFlags)
		}
	case targetModTime.After(sourceModTime):
		if preferRemote {
			delete(merged, sourceModTime)
		}
		if _, ok := merged[sourceModTime]; !ok {
			merged[sourceModTime] = sourceEntry.Clone(vault.CloneNoFlags)
		}
	}

	updatedHistory := sortedByModTime(merged)

	if !historyTailDiffers(targetHistory, updatedHistory, maxItems) {
		return false
	}

	timeInfo := targetEntry.TimeInfo
	blockedSignals := targetEntry.BlockSignals(true)
	updateTimeInfo := targetEntry.SetUpdateTimeInfo(false)
	targetEntry.RemoveHistoryItems(targetHistory)
	for _, item := range updatedHistory {
		targetEntry.AddHistoryItem(item)
	}
	targetEntry.TruncateHistory(maxItems)
	targetEntry.BlockSignals(blockedSignals)
	targetEntry.SetUpdateTimeInfo(updateTimeInfo)
	targetEntry.TimeInfo = timeInfo
	return true
}

func sortedByModTime(merged map[time.Time]*vault.Entry) []*vault.Entry {
	keys := make([]time.Time, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	out := make([]*vault.Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, merged[k])
	}
	return out
}

// historyTailDiffers reports whether the last maxItems entries of old and
// updated differ, comparing from the tail so a change to just-truncated old
// history does not spuriously report "changed".
func historyTailDiffers(old, updated []*vault.Entry, maxItems int) bool {
	at := func(list []*vault.Entry, fromEnd int) *vault.Entry {
		idx := len(list) - fromEnd
		if idx < 0 || idx >= len(list) {
			return nil
		}
		return list[idx]
	}
	for i := 0; i < maxItems; i++ {
		oldEntry := at(old, i)
		newEntry := at(updated, i)
		if oldEntry == nil && newEntry == nil {
			continue
		}
		if oldEntry != nil && newEntry != nil && oldEntry.Equals(newEntry, vault.CompareIgnoreMilliseconds) {
			continue
		}
		return true
	}
	return false
}
