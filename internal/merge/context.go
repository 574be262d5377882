package merge

import "github.com/vaultmerge/vaultmerge/internal/vault"

// mergeContext threads the two databases plus the current pair of groups
// being reconciled through the recursive structural walk. UUID lookups
// during the walk go through sourceDB/targetDB's indices rather than a
// tree walk from a root.
type mergeContext struct {
	sourceDB *vault.Database
	targetDB *vault.Database

	sourceGroup *vault.Group
	targetGroup *vault.Group
}
