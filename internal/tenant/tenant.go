// Package tenant owns the tenant directory and per-request tenant
// resolution.
//
// Context
// -------
// A Tenant is one logical storefront sharing the database with every other
// storefront.  The directory is the cached, ordered view of the tenant
// table; the resolver maps an inbound Host header onto one Tenant for the
// duration of a request.  All consumers receive their collaborators
// explicitly; nothing here reaches into globals.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"errors"
	"net"
	"strings"
)

// Sentinel errors.  ErrNoTenants is a fatal configuration state: the
// system cannot serve a request when the directory is empty.
var (
	ErrNilTenant  = errors.New("tenant: nil tenant")
	ErrLastTenant = errors.New("tenant: cannot delete the only configured tenant")
	ErrNoTenants  = errors.New("tenant: no tenant could be loaded")
)

// Tenant mirrors one row in the `tenant` table.  Hosts is the raw
// comma-separated alias list as stored; use ParseHosts or ContainsHost for
// matching.  The company fields are display-only.
type Tenant struct {
	ID                int64  `db:"id" json:"id"`
	Name              string `db:"name" json:"name"`
	URL               string `db:"url" json:"url"`
	SecureURL         string `db:"secure_url" json:"secure_url"`
	Hosts             string `db:"hosts" json:"hosts"`
	DefaultLanguageID int64  `db:"default_language_id" json:"default_language_id"`
	DisplayOrder      int    `db:"display_order" json:"display_order"`
	CompanyName       string `db:"company_name" json:"company_name"`
	CompanyAddress    string `db:"company_address" json:"company_address"`
	CompanyPhone      string `db:"company_phone" json:"company_phone"`
}

// ParseHosts splits the Hosts column into trimmed, lowercased aliases.
// Empty segments are dropped.
func (t *Tenant) ParseHosts() []string {
	if t.Hosts == "" {
		return nil
	}
	parts := strings.Split(t.Hosts, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ContainsHost reports whether host matches one of the tenant's aliases.
// Comparison is case-insensitive; an empty host never matches.
func (t *Tenant) ContainsHost(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	for _, h := range t.ParseHosts() {
		if h == host {
			return true
		}
	}
	return false
}

// NormalizeHost trims whitespace, strips any :port suffix, and lowercases,
// producing the form aliases are compared against.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}
