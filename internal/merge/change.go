package merge

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vaultmerge/vaultmerge/internal/i18n"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// ChangeType classifies the kind of mutation a Change records.
type ChangeType int

const (
	Unspecified ChangeType = iota
	Added
	Modified
	Moved
	Deleted
)

func (t ChangeType) key() string {
	switch t {
	case Added:
		return "Added"
	case Modified:
		return "Modified"
	case Moved:
		return "Moved"
	case Deleted:
		return "Deleted"
	default:
		return ""
	}
}

// Change is one auditable mutation the merge engine made (or, for
// Unspecified, a database-wide fact worth surfacing). Changes are never
// mutated after creation.
type Change struct {
	Type    ChangeType
	Group   string
	Title   string
	UUID    uuid.UUID
	Details string

	tr i18n.Translator
}

func newChange(tr i18n.Translator, t ChangeType, group, title string, id uuid.UUID, details string) Change {
	if tr == nil {
		tr = i18n.Identity
	}
	return Change{Type: t, Group: group, Title: title, UUID: id, Details: details, tr: tr}
}

func changeForGroup(tr i18n.Translator, t ChangeType, g *vault.Group, details string) Change {
	return newChange(tr, t, g.FullPath(), "", g.UUID(), details)
}

func changeForEntry(tr i18n.Translator, t ChangeType, e *vault.Entry, details string) Change {
	group := ""
	if e.Group() != nil {
		group = e.Group().FullPath()
	}
	return newChange(tr, t, group, e.Title, e.UUID(), details)
}

func changeUnspecified(tr i18n.Translator, details string) Change {
	return newChange(tr, Unspecified, "", "", uuid.Nil, details)
}

// TypeString returns the localized name of the change type ("" for Unspecified).
func (c Change) TypeString() string {
	key := c.Type.key()
	if key == "" {
		return ""
	}
	if c.tr == nil {
		return key
	}
	return c.tr.Tr(key)
}

// String renders the change the way the original tool's log/report lines do:
// "Type: 'group'/'title' [uuid] (details)", omitting any empty parts.
func (c Change) String() string {
	s := ""
	if c.Type != Unspecified {
		s += fmt.Sprintf("%s: ", c.TypeString())
	}
	if c.Group != "" {
		s += fmt.Sprintf("'%s'", c.Group)
	}
	if c.Title != "" {
		s += fmt.Sprintf("/'%s'", c.Title)
	}
	if c.UUID != uuid.Nil {
		s += fmt.Sprintf(" [%s]", c.UUID)
	}
	if c.Details != "" {
		s += fmt.Sprintf(" (%s)", c.Details)
	}
	return s
}

// Equal reports value equality, ignoring the translator used to render TypeString.
func (c Change) Equal(other Change) bool {
	return c.Type == other.Type && c.Group == other.Group && c.Title == other.Title &&
		c.UUID == other.UUID && c.Details == other.Details
}

// ChangeList is an ordered sequence of Changes produced by one merge.
type ChangeList []Change
