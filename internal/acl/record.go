// Package acl implements role-based visibility: the acl_record table that
// restricts an entity to an explicit set of roles, mirroring the shape of
// the tenant mapping store in internal/scope.
package acl

import (
	"errors"

	"github.com/yanizio/storefront/internal/entity"
)

var (
	ErrNilRecord = errors.New("acl: nil record")
	ErrNilEntity = errors.New("acl: nil entity")
	ErrNoRoleID  = errors.New("acl: role id must be non-zero")
)

// TypeTagRecord is the discriminator ACL rows use in entity-changed
// events.
const TypeTagRecord = "AclRecord"

// Record mirrors one row in the `acl_record` table: an assertion that
// entity (EntityType, EntityID) is permitted for role RoleID.
type Record struct {
	ID         int64          `db:"id" json:"id"`
	EntityID   int64          `db:"entity_id" json:"entity_id"`
	EntityType entity.TypeTag `db:"entity_type" json:"entity_type"`
	RoleID     int64          `db:"role_id" json:"role_id"`
}
