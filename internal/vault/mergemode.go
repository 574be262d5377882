package vault

// MergeMode selects how a group's subtree is reconciled during a merge.
// Default means "inherit from the target group being merged into"; every
// other value is a concrete policy a group can pin itself to.
type MergeMode int

const (
	// MergeModeDefault inherits the effective mode of the target group.
	MergeModeDefault MergeMode = iota
	// MergeModeSynchronize is full bidirectional sync, including deletions.
	MergeModeSynchronize
	// MergeModeKeepNewer keeps whichever side has the newer content, no deletions.
	MergeModeKeepNewer
	// MergeModeKeepExisting resolves content like KeepNewer (the newer side
	// wins, not always the target), no deletions.
	MergeModeKeepExisting
	// MergeModeKeepRemote resolves content like KeepNewer (the newer side
	// wins, not always the source), no deletions.
	MergeModeKeepRemote
	// MergeModeAsk defers the decision to the caller (treated like KeepNewer
	// by the structural/history logic; only deletion suppression matters here).
	MergeModeAsk
)

func (m MergeMode) String() string {
	switch m {
	case MergeModeDefault:
		return "Default"
	case MergeModeSynchronize:
		return "Synchronize"
	case MergeModeKeepNewer:
		return "KeepNewer"
	case MergeModeKeepExisting:
		return "KeepExisting"
	case MergeModeKeepRemote:
		return "KeepRemote"
	case MergeModeAsk:
		return "Ask"
	default:
		return "Unknown"
	}
}
