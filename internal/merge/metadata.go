package merge

import (
	"fmt"

	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// mergeMetadata is §4.3: it copies over any custom icon the target is
// missing, then - only when the source's custom data was modified more
// recently than the target's - reconciles the two CustomData maps key by
// key, dropping every target-only key the source no longer has (the
// protection check reads the source's flag, which is never set for a key the
// source lacks) and adopting every source value that differs from the target's.
//
// The recycle-bin group reference and per-database templates that the
// original algorithm's own metadata merge leaves unhandled are left
// unhandled here too: this database model has no recycle-bin concept, so
// there is nothing to reconcile.
func (m *Merger) mergeMetadata(ctx mergeContext) ChangeList {
	var changes ChangeList

	sourceMeta := ctx.sourceDB.Metadata()
	targetMeta := ctx.targetDB.Metadata()

	for _, iconID := range sourceMeta.CustomIconsOrder() {
		if !targetMeta.HasCustomIcon(iconID) {
			targetMeta.AddCustomIcon(iconID, sourceMeta.CustomIcon(iconID))
			changes = append(changes, changeUnspecified(m.tr, fmt.Sprintf("Adding missing icon %s", iconID)))
		}
	}

	targetModTime, targetHasModTime := targetMeta.CustomData.LastModified()
	sourceModTime, sourceHasModTime := sourceMeta.CustomData.LastModified()

	sourceIsNewer := !targetMeta.CustomData.Contains(vault.LastModifiedKey) ||
		(targetHasModTime && sourceHasModTime && targetModTime.Before(sourceModTime))
	if !sourceIsNewer {
		return changes
	}

	for _, key := range targetMeta.CustomData.Keys() {
		if !sourceMeta.CustomData.Contains(key) && !sourceMeta.CustomData.IsProtected(key) {
			value := targetMeta.CustomData.Value(key)
			targetMeta.CustomData.Remove(key)
			changes = append(changes, changeUnspecified(m.tr, fmt.Sprintf("Removed custom data %s [%s]", key, value)))
		}
	}

	for _, key := range sourceMeta.CustomData.Keys() {
		if key == vault.LastModifiedKey {
			continue
		}
		sourceValue := sourceMeta.CustomData.Value(key)
		targetValue := targetMeta.CustomData.Value(key)
		if sourceValue != targetValue {
			targetMeta.CustomData.Set(key, sourceValue, sourceMeta.CustomData.IsProtected(key))
			changes = append(changes, changeUnspecified(m.tr, fmt.Sprintf("Adding custom data %s [%s]", key, sourceValue)))
		}
	}

	return changes
}
