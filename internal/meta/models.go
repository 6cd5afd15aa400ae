// Package meta implements the two small bookkeeping subsystems that sit
// beside the main key-value environment: the schema/compat guard (spec
// §4.C9) and fault recovery from a crash mid-resize (spec §4.C10). Both
// are backed by a tiny gorm-over-sqlite database, the same pairing the
// teacher repo used for its own bookkeeping store.
package meta

import (
	"time"

	"gorm.io/datatypes"
)

// SchemaMeta is the single-row table recording the database's schema
// version and the identity of its last writer (spec §6's "small metadata
// file holding schema_version and writer_identity").
type SchemaMeta struct {
	ID             uint `gorm:"primaryKey"`
	Version        int
	WriterIdentity string
	UpdatedAt      time.Time
}

func (SchemaMeta) TableName() string { return "schema_meta" }

// RecoveryEvent records one fault-recovery archival (spec §4.C10), kept
// for operator visibility; it is never read back by the guard itself.
// PrefixMappings captures the host's registered path prefixes at the time
// of archival, so an operator inspecting a corrupt-<timestamp> directory
// later can tell how its paths would have been rewritten.
type RecoveryEvent struct {
	ID             uint `gorm:"primaryKey"`
	ArchivedDir    string
	Reason         string
	PrefixMappings datatypes.JSON
	CreatedAt      time.Time
}

func (RecoveryEvent) TableName() string { return "recovery_events" }
