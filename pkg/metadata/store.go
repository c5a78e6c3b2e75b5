// Package metadata models the header-metadata graph of §3/§4.4 as a
// flat arena keyed by instance UID, per Design Notes §9 ("Cyclic
// metadata graphs... Model with an arena/index approach: one flat store
// of metadata sets keyed by instance UID; cross-references carry only
// the UID and are resolved by lookup"). Grounded on the teacher's
// pkg/video/mp4 box tree (a tree of concrete Go structs walked to
// serialize), generalized here from a tree to a graph because MXF
// header metadata is cyclic (ContentStorage <-> Preface, package <->
// track <-> sequence <-> source clip -> package by UMID).
package metadata

import "mxfauthor/pkg/ident"

// Store is the arena: every metadata set is registered once, keyed by
// its instance UID, and referenced elsewhere only by that UID.
type Store struct {
	sets map[ident.UUID]any
	// order preserves registration order so serialization is
	// deterministic without needing a stable sort at write time.
	order []ident.UUID

	Preface *Preface
}

// NewStore returns an empty arena with a fresh Preface.
func NewStore() *Store {
	s := &Store{sets: make(map[ident.UUID]any)}
	s.Preface = &Preface{InstanceUID: ident.NewUUID()}
	s.register(s.Preface.InstanceUID, s.Preface)
	return s
}

func (s *Store) register(uid ident.UUID, set any) {
	if _, exists := s.sets[uid]; !exists {
		s.order = append(s.order, uid)
	}
	s.sets[uid] = set
}

// Get resolves uid to its registered metadata set, or nil if unknown.
func (s *Store) Get(uid ident.UUID) any {
	return s.sets[uid]
}

// Order returns instance UIDs in registration order, the stable walk
// order used at serialization time.
func (s *Store) Order() []ident.UUID {
	return s.order
}

// Preface is the root of the header-metadata graph, per §3.
type Preface struct {
	InstanceUID      ident.UUID
	LastModifiedDate ident.Timestamp
	Version          uint16
	IdentificationUIDs []ident.UUID
	ContentStorageUID ident.UUID
	OperationalPattern string
	EssenceContainers  []string
}

// Identification records one authoring tool's contribution, per §4.2.
type Identification struct {
	InstanceUID      ident.UUID
	ThisGenerationUID ident.UUID
	CompanyName      string
	ProductName      string
	ProductVersion   string
	ModificationDate ident.Timestamp
}

// NewIdentification registers a fresh Identification set on the
// Preface's identification list.
func (s *Store) NewIdentification(company, product, version string) *Identification {
	id := &Identification{
		InstanceUID:       ident.NewUUID(),
		ThisGenerationUID: ident.NewUUID(),
		CompanyName:       company,
		ProductName:       product,
		ProductVersion:    version,
		ModificationDate:  ident.Now(),
	}
	s.register(id.InstanceUID, id)
	s.Preface.IdentificationUIDs = append(s.Preface.IdentificationUIDs, id.InstanceUID)
	return id
}

// ContentStorage owns the sets of packages and essence container data,
// per §3.
type ContentStorage struct {
	InstanceUID              ident.UUID
	PackageUIDs              []ident.UUID
	EssenceContainerDataUIDs []ident.UUID
}

// NewContentStorage registers the ContentStorage and wires it onto the
// Preface.
func (s *Store) NewContentStorage() *ContentStorage {
	cs := &ContentStorage{InstanceUID: ident.NewUUID()}
	s.register(cs.InstanceUID, cs)
	s.Preface.ContentStorageUID = cs.InstanceUID
	return cs
}

// EssenceContainerData cross-references one file source package's
// essence container by body/index SID, per §3.
type EssenceContainerData struct {
	InstanceUID       ident.UUID
	LinkedPackageUID  ident.UMID
	IndexSID          uint32
	BodySID           uint32
}

// NewEssenceContainerData registers one EssenceContainerData set and
// appends it to cs.
func (s *Store) NewEssenceContainerData(cs *ContentStorage, linkedPackage ident.UMID, indexSID, bodySID uint32) *EssenceContainerData {
	ecd := &EssenceContainerData{
		InstanceUID:      ident.NewUUID(),
		LinkedPackageUID: linkedPackage,
		IndexSID:         indexSID,
		BodySID:          bodySID,
	}
	s.register(ecd.InstanceUID, ecd)
	cs.EssenceContainerDataUIDs = append(cs.EssenceContainerDataUIDs, ecd.InstanceUID)
	return ecd
}
