// internal/acl/repository.go
//
// sqlx-backed Repository over the shared `acl_record` table.
//
// Schema reference
//
//	CREATE TABLE acl_record (
//	    id          BIGINT PRIMARY KEY AUTO_INCREMENT,
//	    entity_id   BIGINT       NOT NULL,
//	    entity_type VARCHAR(400) NOT NULL,
//	    role_id     BIGINT       NOT NULL,
//	    KEY idx_entity (entity_id, entity_type)
//	);
package acl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/storefront/internal/entity"
)

// SQLRepository implements Repository on a *sqlx.DB.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps db.
func NewSQLRepository(db *sqlx.DB) *SQLRepository { return &SQLRepository{db: db} }

// ByID returns one ACL row, or nil when no row matches.
func (r *SQLRepository) ByID(ctx context.Context, id int64) (*Record, error) {
	const q = `
	    SELECT id, entity_id, entity_type, role_id
	    FROM   acl_record
	    WHERE  id = ?
	    LIMIT  1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// For returns every ACL row for one entity, ordered by id.
func (r *SQLRepository) For(ctx context.Context, tag entity.TypeTag, entityID int64) ([]Record, error) {
	const q = `
	    SELECT id, entity_id, entity_type, role_id
	    FROM   acl_record
	    WHERE  entity_id = ? AND entity_type = ?
	    ORDER  BY id`
	rows := make([]Record, 0, 4)
	if err := r.db.SelectContext(ctx, &rows, q, entityID, string(tag)); err != nil {
		return nil, err
	}
	return rows, nil
}

// RoleIDs projects just the role_id column for one entity.
func (r *SQLRepository) RoleIDs(ctx context.Context, tag entity.TypeTag, entityID int64) ([]int64, error) {
	const q = `
	    SELECT role_id
	    FROM   acl_record
	    WHERE  entity_id = ? AND entity_type = ?
	    ORDER  BY role_id`
	ids := make([]int64, 0, 4)
	if err := r.db.SelectContext(ctx, &ids, q, entityID, string(tag)); err != nil {
		return nil, err
	}
	return ids, nil
}

// Insert persists rec and fills in its generated id.
func (r *SQLRepository) Insert(ctx context.Context, rec *Record) error {
	const q = `
	    INSERT INTO acl_record (entity_id, entity_type, role_id)
	    VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rec.EntityID, string(rec.EntityType), rec.RoleID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// Update replaces the row identified by rec.ID.
func (r *SQLRepository) Update(ctx context.Context, rec *Record) error {
	const q = `
	    UPDATE acl_record
	    SET    entity_id = ?, entity_type = ?, role_id = ?
	    WHERE  id = ?`
	_, err := r.db.ExecContext(ctx, q, rec.EntityID, string(rec.EntityType), rec.RoleID, rec.ID)
	return err
}

// Delete removes the row identified by rec.ID.
func (r *SQLRepository) Delete(ctx context.Context, rec *Record) error {
	const q = `DELETE FROM acl_record WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, rec.ID)
	return err
}
