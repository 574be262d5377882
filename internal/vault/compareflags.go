package vault

// CompareFlags controls which aspects of two entries Equals() considers.
type CompareFlags uint8

const (
	CompareNoFlags CompareFlags = 0
	// CompareIgnoreMilliseconds truncates all TimeInfo fields to second
	// resolution before comparing them.
	CompareIgnoreMilliseconds CompareFlags = 1 << iota
	// CompareIgnoreHistory skips the HistoryItems slice.
	CompareIgnoreHistory
	// CompareIgnoreLocation skips TimeInfo.LocationChanged.
	CompareIgnoreLocation
)

func (f CompareFlags) has(bit CompareFlags) bool { return f&bit != 0 }

// CloneFlags controls how much of an Entry or Group Clone() copies.
type CloneFlags uint8

const (
	CloneNoFlags CloneFlags = 0
	// CloneIncludeHistory copies an entry's history items too.
	CloneIncludeHistory CloneFlags = 1 << iota
	// CloneIncludeEntries copies a group's direct entries too.
	CloneIncludeEntries
	// CloneIncludeChildren copies a group's subgroups (recursively) too.
	CloneIncludeChildren
	// CloneNewUUID assigns a fresh UUID to the clone instead of reusing the original.
	CloneNewUUID
)

func (f CloneFlags) has(bit CloneFlags) bool { return f&bit != 0 }
