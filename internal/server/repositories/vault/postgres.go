// Package vault (server-side) persists a per-user vault.Database as a
// relational snapshot: one row per group and per entry, keyed by the
// account's user ID, so that concurrent devices always merge against the
// same durable structural tree the sync RPC handed out.
package vault

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	dbmodel "github.com/vaultmerge/vaultmerge/internal/dbx"
	"github.com/vaultmerge/vaultmerge/internal/vault"
)

// Repository loads and stores one user's whole vault as a snapshot.
type Repository interface {
	Load(ctx context.Context, userID uuid.UUID) (*vault.Database, error)
	Save(ctx context.Context, userID uuid.UUID, db *vault.Database) error
}

// PostgresRepository is a Repository backed by Postgres.
type PostgresRepository struct {
	db dbmodel.DBTX
}

// NewPostgresRepository binds a Repository to db.
func NewPostgresRepository(db dbmodel.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type entryRow struct {
	ID                    uuid.UUID
	GroupID               uuid.UUID
	Title                 string
	FieldsJSON            []byte
	IconNumber            int
	IconUUID              uuid.UUID
	CreationTime          sql.NullTime
	LastModificationTime  sql.NullTime
	LastAccessTime        sql.NullTime
	ExpiryTime            sql.NullTime
	ExpiresEnabled        bool
	LocationChanged       sql.NullTime
}

// Load reconstructs the full group/entry tree, history, tombstones, and
// metadata for userID. A user with no rows yet gets a fresh empty database.
//
// Load first takes a transaction-scoped Postgres advisory lock keyed on
// userID, released automatically when the enclosing transaction commits or
// rolls back. Callers running Load and Save inside the same transaction (see
// VaultSyncService.Sync) get a real per-user critical section around the
// whole read-merge-write cycle: a concurrent sync for the same user blocks
// on this lock until the first sync's transaction ends, instead of both
// loading the same snapshot and racing on Save.
func (r *PostgresRepository) Load(ctx context.Context, userID uuid.UUID) (*vault.Database, error) {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String()); err != nil {
		return nil, err
	}

	db := vault.New()

	if err := r.loadGroups(ctx, userID, db); err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, userID, db); err != nil {
		return nil, err
	}
	if err := r.loadDeletions(ctx, userID, db); err != nil {
		return nil, err
	}
	if err := r.loadMetadata(ctx, userID, db); err != nil {
		return nil, err
	}
	db.RebuildIndex()
	db.ResetModified()
	return db, nil
}

func (r *PostgresRepository) loadGroups(ctx context.Context, userID uuid.UUID, db *vault.Database) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, name, notes, icon_number, icon_uuid, merge_mode,
		       creation_time, last_modification_time, last_access_time,
		       expiry_time, expires_enabled, location_changed
		FROM vault_groups WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type raw struct {
		id, parentID uuid.NullUUID
		g            *vault.Group
	}
	var pending []raw
	nodes := map[uuid.UUID]*vault.Group{db.RootGroup().UUID(): db.RootGroup()}

	for rows.Next() {
		var id uuid.UUID
		var parentID uuid.NullUUID
		var name, notes string
		var iconNumber, mergeMode int
		var iconUUID uuid.UUID
		var creation, lastMod, lastAccess, expiry, locChanged sql.NullTime
		var expiresEnabled bool
		if err := rows.Scan(&id, &parentID, &name, &notes, &iconNumber, &iconUUID, &mergeMode,
			&creation, &lastMod, &lastAccess, &expiry, &expiresEnabled, &locChanged); err != nil {
			return err
		}
		if id == db.RootGroup().UUID() {
			continue
		}
		g := vault.NewGroupWithUUID(id)
		g.Name = name
		g.Notes = notes
		g.IconNumber = iconNumber
		g.IconUUID = iconUUID
		g.MergeMode = vault.MergeMode(mergeMode)
		g.TimeInfo = timeInfoFromRow(creation, lastMod, lastAccess, expiry, expiresEnabled, locChanged)
		nodes[id] = g
		pending = append(pending, raw{id: uuid.NullUUID{UUID: id, Valid: true}, parentID: parentID, g: g})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Attach in dependency order: repeat passes until every pending group's
	// parent has already been attached, so a child is never seen before its
	// parent regardless of row order.
	for len(pending) > 0 {
		progressed := false
		var next []raw
		for _, p := range pending {
			parentID := db.RootGroup().UUID()
			if p.parentID.Valid {
				parentID = p.parentID.UUID
			}
			parent, ok := nodes[parentID]
			if !ok {
				next = append(next, p)
				continue
			}
			db.AttachGroup(p.g, parent)
			progressed = true
		}
		if !progressed {
			return errors.New("vault: orphaned group rows form a cycle or reference a missing parent")
		}
		pending = next
	}
	return nil
}

func (r *PostgresRepository) loadEntries(ctx context.Context, userID uuid.UUID, db *vault.Database) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, title, fields, icon_number, icon_uuid,
		       creation_time, last_modification_time, last_access_time,
		       expiry_time, expires_enabled, location_changed
		FROM vault_entries WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var entryRows []entryRow
	for rows.Next() {
		var er entryRow
		if err := rows.Scan(&er.ID, &er.GroupID, &er.Title, &er.FieldsJSON, &er.IconNumber, &er.IconUUID,
			&er.CreationTime, &er.LastModificationTime, &er.LastAccessTime, &er.ExpiryTime,
			&er.ExpiresEnabled, &er.LocationChanged); err != nil {
			return err
		}
		entryRows = append(entryRows, er)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, er := range entryRows {
		group := db.FindGroupByUUID(er.GroupID)
		if group == nil {
			return errors.New("vault: entry references a group that was never loaded")
		}
		e := vault.NewEntryWithUUID(er.ID)
		e.Title = er.Title
		e.IconNumber = er.IconNumber
		e.IconUUID = er.IconUUID
		e.TimeInfo = timeInfoFromRow(er.CreationTime, er.LastModificationTime, er.LastAccessTime, er.ExpiryTime, er.ExpiresEnabled, er.LocationChanged)
		if len(er.FieldsJSON) > 0 {
			if err := json.Unmarshal(er.FieldsJSON, &e.Fields); err != nil {
				return err
			}
		}
		db.AttachEntry(e, group)

		history, err := r.loadHistory(ctx, userID, er.ID)
		if err != nil {
			return err
		}
		for _, h := range history {
			e.AddHistoryItem(h)
		}
	}
	return nil
}

func (r *PostgresRepository) loadHistory(ctx context.Context, userID, entryID uuid.UUID) ([]*vault.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, fields, icon_number, icon_uuid,
		       creation_time, last_modification_time, last_access_time,
		       expiry_time, expires_enabled, location_changed
		FROM vault_entry_history
		WHERE user_id = $1 AND entry_id = $2
		ORDER BY last_modification_time ASC`, userID, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*vault.Entry
	for rows.Next() {
		var title string
		var fieldsJSON []byte
		var iconNumber int
		var iconUUID uuid.UUID
		var creation, lastMod, lastAccess, expiry, locChanged sql.NullTime
		var expiresEnabled bool
		if err := rows.Scan(&title, &fieldsJSON, &iconNumber, &iconUUID,
			&creation, &lastMod, &lastAccess, &expiry, &expiresEnabled, &locChanged); err != nil {
			return nil, err
		}
		h := vault.NewEntryWithUUID(entryID)
		h.Title = title
		h.IconNumber = iconNumber
		h.IconUUID = iconUUID
		h.TimeInfo = timeInfoFromRow(creation, lastMod, lastAccess, expiry, expiresEnabled, locChanged)
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &h.Fields); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) loadDeletions(ctx context.Context, userID uuid.UUID, db *vault.Database) error {
	rows, err := r.db.QueryContext(ctx, `SELECT uuid, deletion_time FROM vault_deleted_objects WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var objs []vault.DeletedObject
	for rows.Next() {
		var obj vault.DeletedObject
		if err := rows.Scan(&obj.UUID, &obj.DeletionTime); err != nil {
			return err
		}
		objs = append(objs, obj)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	db.SetDeletedObjects(objs)
	return nil
}

func (r *PostgresRepository) loadMetadata(ctx context.Context, userID uuid.UUID, db *vault.Database) error {
	row := r.db.QueryRowContext(ctx, `SELECT history_max_items FROM vault_metadata WHERE user_id = $1`, userID)
	var historyMaxItems int
	if err := row.Scan(&historyMaxItems); err == nil {
		db.Metadata().HistoryMaxItems = historyMaxItems
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT key, value, protected FROM vault_custom_data WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		var protected bool
		if err := rows.Scan(&key, &value, &protected); err != nil {
			return err
		}
		db.Metadata().CustomData.Set(key, value, protected)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	iconRows, err := r.db.QueryContext(ctx, `SELECT icon_uuid, data FROM vault_custom_icons WHERE user_id = $1 ORDER BY ord ASC`, userID)
	if err != nil {
		return err
	}
	defer iconRows.Close()
	for iconRows.Next() {
		var iconID uuid.UUID
		var data []byte
		if err := iconRows.Scan(&iconID, &data); err != nil {
			return err
		}
		db.Metadata().AddCustomIcon(iconID, data)
	}
	return iconRows.Err()
}

// Save replaces every row belonging to userID with a fresh snapshot of db.
// Callers run this inside a transaction (see dbx.WithTx) so a Save is atomic
// with respect to concurrent Loads.
func (r *PostgresRepository) Save(ctx context.Context, userID uuid.UUID, db *vault.Database) error {
	for _, table := range []string{
		"vault_custom_icons", "vault_custom_data", "vault_metadata",
		"vault_deleted_objects", "vault_entry_history", "vault_entries", "vault_groups",
	} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
			return err
		}
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO vault_groups (id, user_id, parent_id, name, notes, icon_number, icon_uuid, merge_mode,
		 creation_time, last_modification_time, last_access_time, expiry_time, expires_enabled, location_changed)
		 VALUES ($1,$2,NULL,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		db.RootGroup().UUID(), userID, db.RootGroup().Name, db.RootGroup().Notes,
		db.RootGroup().IconNumber, db.RootGroup().IconUUID, int(db.RootGroup().MergeMode),
		db.RootGroup().TimeInfo.CreationTime, db.RootGroup().TimeInfo.LastModificationTime,
		db.RootGroup().TimeInfo.LastAccessTime, db.RootGroup().TimeInfo.ExpiryTime,
		db.RootGroup().TimeInfo.ExpiresEnabled, db.RootGroup().TimeInfo.LocationChanged,
	); err != nil {
		return err
	}

	for _, g := range db.RootGroup().GroupsRecursive() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO vault_groups (id, user_id, parent_id, name, notes, icon_number, icon_uuid, merge_mode,
			 creation_time, last_modification_time, last_access_time, expiry_time, expires_enabled, location_changed)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			g.UUID(), userID, g.Parent().UUID(), g.Name, g.Notes, g.IconNumber, g.IconUUID, int(g.MergeMode),
			g.TimeInfo.CreationTime, g.TimeInfo.LastModificationTime, g.TimeInfo.LastAccessTime,
			g.TimeInfo.ExpiryTime, g.TimeInfo.ExpiresEnabled, g.TimeInfo.LocationChanged,
		); err != nil {
			return err
		}
	}

	for _, e := range db.RootGroup().EntriesRecursive() {
		if err := r.saveEntry(ctx, userID, e.Group().UUID(), e, false); err != nil {
			return err
		}
		for _, h := range e.HistoryItems() {
			if err := r.saveEntry(ctx, userID, uuid.Nil, h, true); err != nil {
				return err
			}
		}
	}

	for _, obj := range db.DeletedObjects() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO vault_deleted_objects (uuid, user_id, deletion_time) VALUES ($1,$2,$3)`,
			obj.UUID, userID, obj.DeletionTime); err != nil {
			return err
		}
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO vault_metadata (user_id, history_max_items) VALUES ($1,$2)`,
		userID, db.Metadata().HistoryMaxItems); err != nil {
		return err
	}
	for _, key := range db.Metadata().CustomData.Keys() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO vault_custom_data (user_id, key, value, protected) VALUES ($1,$2,$3,$4)`,
			userID, key, db.Metadata().CustomData.Value(key), db.Metadata().CustomData.IsProtected(key)); err != nil {
			return err
		}
	}
	for i, iconID := range db.Metadata().CustomIconsOrder() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO vault_custom_icons (user_id, icon_uuid, data, ord) VALUES ($1,$2,$3,$4)`,
			userID, iconID, db.Metadata().CustomIcon(iconID), i); err != nil {
			return err
		}
	}

	db.ResetModified()
	return nil
}

func (r *PostgresRepository) saveEntry(ctx context.Context, userID, groupID uuid.UUID, e *vault.Entry, history bool) error {
	fieldsJSON, err := json.Marshal(e.Fields)
	if err != nil {
		return err
	}
	if history {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO vault_entry_history (entry_id, user_id, title, fields, icon_number, icon_uuid,
			 creation_time, last_modification_time, last_access_time, expiry_time, expires_enabled, location_changed)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			e.UUID(), userID, e.Title, fieldsJSON, e.IconNumber, e.IconUUID,
			e.TimeInfo.CreationTime, e.TimeInfo.LastModificationTime, e.TimeInfo.LastAccessTime,
			e.TimeInfo.ExpiryTime, e.TimeInfo.ExpiresEnabled, e.TimeInfo.LocationChanged)
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO vault_entries (id, user_id, group_id, title, fields, icon_number, icon_uuid,
		 creation_time, last_modification_time, last_access_time, expiry_time, expires_enabled, location_changed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.UUID(), userID, groupID, e.Title, fieldsJSON, e.IconNumber, e.IconUUID,
		e.TimeInfo.CreationTime, e.TimeInfo.LastModificationTime, e.TimeInfo.LastAccessTime,
		e.TimeInfo.ExpiryTime, e.TimeInfo.ExpiresEnabled, e.TimeInfo.LocationChanged)
	return err
}

func timeInfoFromRow(creation, lastMod, lastAccess, expiry sql.NullTime, expiresEnabled bool, locChanged sql.NullTime) vault.TimeInfo {
	return vault.TimeInfo{
		CreationTime:          creation.Time,
		LastModificationTime:  lastMod.Time,
		LastAccessTime:        lastAccess.Time,
		ExpiryTime:            expiry.Time,
		ExpiresEnabled:        expiresEnabled,
		LocationChanged:       locChanged.Time,
	}
}
