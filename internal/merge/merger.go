// Package merge implements the structural merge engine: it reconciles a
// read-only source vault.Database into a mutable target vault.Database and
// returns an ordered, auditable ChangeList. See SPEC_FULL.md §1-§9 for the
// full behavioral specification this package implements.
package merge

import (
	"log/slog"

	"github.com/vaultmerge/vaultmerge/internal/i18n"
	"github.com/vaultmerge/vaultmerge/internal/logging"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// Merger runs one merge of a source database/group into a target one.
// A Merger is single-use: construct it, optionally call SetForcedMergeMode,
// then call Merge exactly once.
type Merger struct {
	context mergeContext
	mode    vault.MergeMode

	logger logging.Logger
	tr     i18n.Translator
}

// Option configures a Merger at construction time.
type Option func(*Merger)

// WithLogger overrides the logger used for data-inconsistency warnings.
// The default is logging.NewSlogLogger wrapping slog.Default().
func WithLogger(l logging.Logger) Option {
	return func(m *Merger) { m.logger = l }
}

// WithTranslator overrides the translation gateway used to render Change
// type strings. The default is i18n.Identity.
func WithTranslator(tr i18n.Translator) Option {
	return func(m *Merger) { m.tr = tr }
}

// NewFromDatabases constructs a Merger that reconciles sourceDB's whole tree
// into targetDB's whole tree. Both arguments must be non-nil.
func NewFromDatabases(sourceDB, targetDB *vault.Database, opts ...Option) (*Merger, error) {
	if sourceDB == nil || targetDB == nil {
		return nil, ErrInvalidArgument
	}
	return newMerger(mergeContext{
		sourceDB:    sourceDB,
		targetDB:    targetDB,
		sourceGroup: sourceDB.RootGroup(),
		targetGroup: targetDB.RootGroup(),
	}, opts...), nil
}

// NewFromGroups constructs a Merger scoped to merging sourceGroup's subtree
// into targetGroup, while still resolving cross-tree UUID lookups against
// each group's whole owning database. Both arguments must be non-nil and
// each must belong to a database.
func NewFromGroups(sourceGroup, targetGroup *vault.Group, opts ...Option) (*Merger, error) {
	if sourceGroup == nil || targetGroup == nil || sourceGroup.Database() == nil || targetGroup.Database() == nil {
		return nil, ErrInvalidArgument
	}
	return newMerger(mergeContext{
		sourceDB:    sourceGroup.Database(),
		targetDB:    targetGroup.Database(),
		sourceGroup: sourceGroup,
		targetGroup: targetGroup,
	}, opts...), nil
}

func newMerger(ctx mergeContext, opts ...Option) *Merger {
	m := &Merger{
		context: ctx,
		mode:    vault.MergeModeDefault,
		logger:  logging.NewSlogLogger(slog.Default()),
		tr:      i18n.Identity,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetForcedMergeMode overrides every group's own MergeMode for the duration
// of this merge.
func (m *Merger) SetForcedMergeMode(mode vault.MergeMode) { m.mode = mode }

// ResetForcedMergeMode reverts to per-group MergeMode (vault.MergeModeDefault).
func (m *Merger) ResetForcedMergeMode() { m.mode = vault.MergeModeDefault }

// effectiveMode is merge's single decision site for §4.1.4: forced mode wins
// unless it is Default, in which case the target group's own mode applies.
func (m *Merger) effectiveMode(targetGroup *vault.Group) vault.MergeMode {
	if m.mode != vault.MergeModeDefault {
		return m.mode
	}
	return targetGroup.MergeMode
}

// Merge runs the three-phase merge (structural, deletions, metadata) and
// returns every Change produced, in phase order. Order is load-bearing:
// structural merge may re-create a node whose tombstone exists on the other
// side, and deletion reconciliation then decides whether that re-creation
// should be undone.
func (m *Merger) Merge() ChangeList {
	var changes ChangeList
	changes = append(changes, m.mergeGroup(m.context)...)
	changes = append(changes, m.mergeDeletions(m.context)...)
	changes = append(changes, m.mergeMetadata(m.context)...)

	if len(changes) > 0 {
		m.context.targetDB.MarkAsModified()
	}
	return changes
}
