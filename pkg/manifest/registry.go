// Package manifest implements the AS-02 bundle registry of §4.2/§6:
// an append-only UMID ledger, the manifest/shim XML pair, and the
// bundle directory layout. Grounded on the teacher's pkg/log/db.go
// (bbolt-backed append-only record stream) for the ledger, and
// pkg/storage/storage.go's os.DirFS/os.MkdirAll idiom for directory
// creation.
package manifest

import (
	"fmt"

	"mxfauthor/pkg/ident"
	"mxfauthor/pkg/mic"
)

// Role classifies one bundle file entry, per §3 "Manifest File Entry."
type Role int

// Manifest roles.
const (
	RolePrimaryVersion Role = iota
	RoleVersion
	RoleEssenceComponent
	RoleManifest
	RoleShim
	RoleGraphic
)

func (r Role) String() string {
	switch r {
	case RolePrimaryVersion:
		return "PRIMARY_VERSION"
	case RoleVersion:
		return "VERSION"
	case RoleEssenceComponent:
		return "ESSENCE_COMPONENT"
	case RoleManifest:
		return "MANIFEST"
	case RoleShim:
		return "SHIM"
	case RoleGraphic:
		return "GRAPHIC"
	default:
		return "UNKNOWN"
	}
}

// Entry is one AS-02 manifest file entry, per §3.
type Entry struct {
	RelativeURI string
	Role        Role
	ID          ident.UMID
	MICType     mic.Type
	MICScope    mic.Scope
	MICValue    string
}

// Registry is the bundle's relative-URI -> file-entry mapping, per
// §4.2 "The AS-02 manifest is a mapping from relative URI -> file
// entry." A Ledger backs it with a persistent UMID uniqueness check
// spanning process restarts against the same bundle directory.
type Registry struct {
	entries []*Entry
	byURI   map[string]*Entry
	ledger  *Ledger
}

// NewRegistry returns an empty registry. ledger may be nil to skip
// cross-process UMID uniqueness enforcement (e.g. in tests).
func NewRegistry(ledger *Ledger) *Registry {
	return &Registry{byURI: make(map[string]*Entry), ledger: ledger}
}

// Register adds one file entry at creation time, assigning it the
// file-source-package UMID as its id, per §4.2 "Each essence-component
// file registers itself at creation time." Fails if the UMID has
// already been registered in this bundle (this run or, via the
// ledger, a prior one), enforcing "every file source package's UMID
// is unique within a bundle" (§3 Invariants).
func (r *Registry) Register(relativeURI string, role Role, id ident.UMID, typ mic.Type, scope mic.Scope) (*Entry, error) {
	if _, exists := r.byURI[relativeURI]; exists {
		return nil, fmt.Errorf("manifest: duplicate relative uri %q", relativeURI)
	}
	for _, e := range r.entries {
		if e.ID == id {
			return nil, fmt.Errorf("manifest: umid already registered in bundle: %x", id)
		}
	}
	if r.ledger != nil {
		taken, err := r.ledger.Reserve(id, relativeURI)
		if err != nil {
			return nil, fmt.Errorf("manifest: reserve umid: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("manifest: umid already registered in bundle: %x", id)
		}
	}

	e := &Entry{RelativeURI: relativeURI, Role: role, ID: id, MICType: typ, MICScope: scope}
	r.entries = append(r.entries, e)
	r.byURI[relativeURI] = e
	return e, nil
}

// SetMICValue updates an entry's finalized digest, per §4.4 Complete
// step 8 "Finalize MIC checksum and update manifest entry."
func (r *Registry) SetMICValue(relativeURI, value string) error {
	e, ok := r.byURI[relativeURI]
	if !ok {
		return fmt.Errorf("manifest: unknown relative uri %q", relativeURI)
	}
	e.MICValue = value
	return nil
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []*Entry {
	return r.entries
}
