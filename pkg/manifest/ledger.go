package manifest

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"mxfauthor/pkg/ident"
)

const ledgerBucket = "umids"

// Ledger persists an append-only record of every UMID registered
// against a bundle directory, in an embedded bbolt database, so that
// "every file source package's UMID is unique within a bundle" (§3
// Invariants) is enforced even across process restarts that reopen
// the same bundle. Grounded on the teacher's pkg/log/db.go, which
// persists its own append-only record stream the same way.
type Ledger struct {
	db *bolt.DB
}

// OpenLedger opens (creating if absent) the ledger database at dbPath,
// typically <bundle>/.manifest.db.
func OpenLedger(dbPath string) (*Ledger, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("manifest: open ledger: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ledgerBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: create ledger bucket: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Reserve records umid against relativeURI, returning taken=true if
// umid was already present (from this run or a prior process).
func (l *Ledger) Reserve(umid ident.UMID, relativeURI string) (taken bool, err error) {
	err = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket))
		key := umid[:]
		if existing := b.Get(key); existing != nil {
			taken = true
			return nil
		}
		return b.Put(key, []byte(relativeURI))
	})
	if err != nil {
		return false, fmt.Errorf("manifest: ledger update: %w", err)
	}
	return taken, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
