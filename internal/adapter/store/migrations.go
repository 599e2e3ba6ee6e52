package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	Unsupported    bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// SchemaVersion returns the stored schema version, 0 for a fresh file.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketStats)
		if b == nil {
			return nil
		}
		data := b.Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

// CheckMigration reports whether the file needs upgrading before use.
func (s *BoltStore) CheckMigration() (*MigrationResult, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	result := &MigrationResult{
		OldVersion: version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", version, CurrentSchemaVersion)
	case version > CurrentSchemaVersion:
		result.Unsupported = true
		result.Reason = fmt.Sprintf("history created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}
	return result, nil
}

// Migrate brings the file up to CurrentSchemaVersion. A file written by a
// newer release is refused rather than rewritten.
func (s *BoltStore) Migrate() error {
	result, err := s.CheckMigration()
	if err != nil {
		return err
	}
	if result.Unsupported {
		return fmt.Errorf("cannot open history: %s", result.Reason)
	}
	if !result.NeedsMigration {
		return nil
	}

	for v := result.OldVersion; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(CurrentSchemaVersion)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keySchemaVersion, data)
	})
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		return s.db.Update(func(tx *bbolt.Tx) error {
			for _, name := range [][]byte{bucketSessions, bucketStats} {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return fmt.Errorf("failed to create bucket %s: %w", name, err)
				}
			}
			return nil
		})
	case from == 1 && to == 2:
		// v2 keeps per-session counters so listing does not scan every turn.
		return s.db.Update(func(tx *bbolt.Tx) error {
			meta, err := tx.CreateBucketIfNotExists(bucketMeta)
			if err != nil {
				return err
			}
			sessions := tx.Bucket(bucketSessions)
			return sessions.ForEach(func(k, v []byte) error {
				if v != nil {
					return nil
				}
				n := 0
				c := sessions.Bucket(k).Cursor()
				for key, _ := c.First(); key != nil; key, _ = c.Next() {
					n++
				}
				data, err := json.Marshal(sessionMeta{Turns: n})
				if err != nil {
					return err
				}
				return meta.Put(k, data)
			})
		})
	default:
		return nil
	}
}

// Clear removes every session but keeps the schema version.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSessions, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
