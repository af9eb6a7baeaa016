// internal/tenant/repository.go
//
// sqlx-backed Repository over the `tenant` table.
//
// Schema reference
//
//	CREATE TABLE tenant (
//	    id                  BIGINT PRIMARY KEY AUTO_INCREMENT,
//	    name                VARCHAR(400)  NOT NULL,
//	    url                 VARCHAR(400)  NOT NULL,
//	    secure_url          VARCHAR(400)  NOT NULL DEFAULT '',
//	    hosts               VARCHAR(1000) NOT NULL DEFAULT '',
//	    default_language_id BIGINT        NOT NULL DEFAULT 0,
//	    display_order       INT           NOT NULL DEFAULT 0,
//	    company_name        VARCHAR(400)  NOT NULL DEFAULT '',
//	    company_address     VARCHAR(400)  NOT NULL DEFAULT '',
//	    company_phone       VARCHAR(100)  NOT NULL DEFAULT ''
//	);
//
// Column list matches the fields in Tenant; update both together.
package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const tenantColumns = `id, name, url, secure_url, hosts, default_language_id,
       display_order, company_name, company_address, company_phone`

// SQLRepository implements Repository on a *sqlx.DB.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps db.
func NewSQLRepository(db *sqlx.DB) *SQLRepository { return &SQLRepository{db: db} }

// All returns every tenant ordered by (display_order, id).
func (r *SQLRepository) All(ctx context.Context) ([]Tenant, error) {
	const q = `
	    SELECT ` + tenantColumns + `
	    FROM   tenant
	    ORDER  BY display_order, id`
	rows := make([]Tenant, 0, 4)
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// ByID returns one tenant, or nil when no row matches.
func (r *SQLRepository) ByID(ctx context.Context, id int64) (*Tenant, error) {
	const q = `
	    SELECT ` + tenantColumns + `
	    FROM   tenant
	    WHERE  id = ?
	    LIMIT  1`
	var t Tenant
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Insert persists t and fills in its generated id.
func (r *SQLRepository) Insert(ctx context.Context, t *Tenant) error {
	const q = `
	    INSERT INTO tenant
	        (name, url, secure_url, hosts, default_language_id,
	         display_order, company_name, company_address, company_phone)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.Name, t.URL, t.SecureURL, t.Hosts, t.DefaultLanguageID,
		t.DisplayOrder, t.CompanyName, t.CompanyAddress, t.CompanyPhone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// Update replaces the row identified by t.ID.
func (r *SQLRepository) Update(ctx context.Context, t *Tenant) error {
	const q = `
	    UPDATE tenant
	    SET    name = ?, url = ?, secure_url = ?, hosts = ?,
	           default_language_id = ?, display_order = ?,
	           company_name = ?, company_address = ?, company_phone = ?
	    WHERE  id = ?`
	_, err := r.db.ExecContext(ctx, q,
		t.Name, t.URL, t.SecureURL, t.Hosts, t.DefaultLanguageID,
		t.DisplayOrder, t.CompanyName, t.CompanyAddress, t.CompanyPhone, t.ID)
	return err
}

// Delete removes the row identified by t.ID.
func (r *SQLRepository) Delete(ctx context.Context, t *Tenant) error {
	const q = `DELETE FROM tenant WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, t.ID)
	return err
}
