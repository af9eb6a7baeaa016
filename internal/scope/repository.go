// internal/scope/repository.go
//
// sqlx-backed Repository over the shared `tenant_mapping` table.
//
// Schema reference
//
//	CREATE TABLE tenant_mapping (
//	    id          BIGINT PRIMARY KEY AUTO_INCREMENT,
//	    entity_id   BIGINT       NOT NULL,
//	    entity_type VARCHAR(400) NOT NULL,
//	    tenant_id   BIGINT       NOT NULL,
//	    KEY idx_entity (entity_id, entity_type)
//	);
package scope

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

// ByID returns one mapping row, or nil when no row matches.
func (r *SQLRepository) ByID(ctx context.Context, id int64) (*Mapping, error) {
	const q = `
	    SELECT id, entity_id, entity_type, tenant_id
	    FROM   tenant_mapping
	    WHERE  id = ?
	    LIMIT  1`
	var m Mapping
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// For returns every mapping row for one entity, ordered by id.
func (r *SQLRepository) For(ctx context.Context, tag entity.TypeTag, entityID int64) ([]Mapping, error) {
	const q = `
	    SELECT id, entity_id, entity_type, tenant_id
	    FROM   tenant_mapping
	    WHERE  entity_id = ? AND entity_type = ?
	    ORDER  BY id`
	rows := make([]Mapping, 0, 4)
	if err := r.db.SelectContext(ctx, &rows, q, entityID, string(tag)); err != nil {
		return nil, err
	}
	return rows, nil
}

// TenantIDs projects just the tenant_id column for one entity.
func (r *SQLRepository) TenantIDs(ctx context.Context, tag entity.TypeTag, entityID int64) ([]int64, error) {
	const q = `
	    SELECT tenant_id
	    FROM   tenant_mapping
	    WHERE  entity_id = ? AND entity_type = ?
	    ORDER  BY tenant_id`
	ids := make([]int64, 0, 4)
	if err := r.db.SelectContext(ctx, &ids, q, entityID, string(tag)); err != nil {
		return nil, err
	}
	return ids, nil
}

// Insert persists m and fills in its generated id.
func (r *SQLRepository) Insert(ctx context.Context, m *Mapping) error {
	const q = `
	    INSERT INTO tenant_mapping (entity_id, entity_type, tenant_id)
	    VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.EntityID, string(m.EntityType), m.TenantID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// Update replaces the row identified by m.ID.
func (r *SQLRepository) Update(ctx context.Context, m *Mapping) error {
	const q = `
	    UPDATE tenant_mapping
	    SET    entity_id = ?, entity_type = ?, tenant_id = ?
	    WHERE  id = ?`
	_, err := r.db.ExecContext(ctx, q, m.EntityID, string(m.EntityType), m.TenantID, m.ID)
	return err
}

// Delete removes the row identified by m.ID.
func (r *SQLRepository) Delete(ctx context.Context, m *Mapping) error {
	const q = `DELETE FROM tenant_mapping WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, m.ID)
	return err
}
