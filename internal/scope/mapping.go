// Package scope implements per-tenant visibility: the tenant_mapping table
// that pins an entity to an explicit set of tenants, and the Authorize
// decision that every read path consults.
//
// Context
// -------
// Mappings for every entity kind share one table, discriminated by the
// entity_type column.  The hot read path is TenantIDsWithAccess, a cached
// reverse lookup; every mutation coarsely invalidates the whole mapping
// namespace (and the listing namespace, whose cached results embed the
// effect of mappings) after the repository write commits.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package scope

import (
	"errors"

	"github.com/yanizio/storefront/internal/entity"
)

var (
	ErrNilMapping = errors.New("scope: nil mapping")
	ErrNilEntity  = errors.New("scope: nil entity")
	ErrNoTenantID = errors.New("scope: tenant id must be non-zero")
)

// TypeTagMapping is the discriminator mapping rows use in entity-changed
// events.
const TypeTagMapping = "TenantMapping"

// Mapping mirrors one row in the `tenant_mapping` table: an assertion that
// entity (EntityType, EntityID) is permitted in tenant TenantID.  Duplicate
// rows are harmless; authorization only tests existence.
type Mapping struct {
	ID         int64          `db:"id" json:"id"`
	EntityID   int64          `db:"entity_id" json:"entity_id"`
	EntityType entity.TypeTag `db:"entity_type" json:"entity_type"`
	TenantID   int64          `db:"tenant_id" json:"tenant_id"`
}
