package vault

// TimeInfoUpdatable is implemented by both Group and Entry.
type TimeInfoUpdatable interface {
	CanUpdateTimeInfo() bool
	SetUpdateTimeInfo(bool) bool
}

// SuspendTimeInfo disables TimeInfo auto-update on every non-nil node passed
// in and returns a restore func that puts each one back exactly as it found
// it. A nil *Group or *Entry passed in counts as nil. The merge package's
// move helpers defer restore(); its erase helpers call it right after the
// removal.
func SuspendTimeInfo(nodes ...TimeInfoUpdatable) func() {
	live := make([]TimeInfoUpdatable, len(nodes))
	for i, n := range nodes {
		switch v := n.(type) {
		case *Group:
			if v == nil {
				continue
			}
		case *Entry:
			if v == nil {
				continue
			}
		}
		live[i] = n
	}
	prev := make([]bool, len(nodes))
	for i, n := range live {
		if n == nil {
			continue
		}
		prev[i] = n.SetUpdateTimeInfo(false)
	}
	return func() {
		for i, n := range live {
			if n == nil {
				continue
			}
			n.SetUpdateTimeInfo(prev[i])
		}
	}
}
