package meta

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
	"github.com/oxhq/indexdb/internal/storeerr"
)

// Guard is the C9 version/compat guard: it owns the metadata database
// alongside the environment's data files and enforces the schema-version
// check at open time.
type Guard struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenGuard opens (creating if necessary) the metadata database under dir.
func OpenGuard(dir string, log *zap.Logger) (*Guard, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "meta.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, storeerr.IO("meta-open", dir, err)
	}
	if err := db.AutoMigrate(&SchemaMeta{}, &RecoveryEvent{}); err != nil {
		return nil, storeerr.Store("meta-migrate", "", err)
	}
	return &Guard{db: db, log: log}, nil
}

// Check implements spec §4.C9: read schema_version; if absent, write the
// current version; if present and it matches, proceed; if present and it
// mismatches, refuse with IncompatibleVersion. writerIdentity mismatches
// against the previously recorded writer are logged, not fatal.
func (g *Guard) Check(writerIdentity string) error {
	var row SchemaMeta
	err := g.db.First(&row, 1).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		row = SchemaMeta{ID: 1, Version: schema.Version, WriterIdentity: writerIdentity, UpdatedAt: time.Now()}
		if err := g.db.Create(&row).Error; err != nil {
			return storeerr.Store("meta-create", "", err)
		}
		return nil
	case err != nil:
		return storeerr.Store("meta-read", "", err)
	}

	if row.Version != schema.Version {
		return storeerr.IncompatibleVersion(row.Version, schema.Version)
	}
	if row.WriterIdentity != "" && row.WriterIdentity != writerIdentity {
		g.log.Warn("database last opened by a different writer identity",
			zap.String("previous", row.WriterIdentity), zap.String("current", writerIdentity))
	}
	row.WriterIdentity = writerIdentity
	row.UpdatedAt = time.Now()
	if err := g.db.Save(&row).Error; err != nil {
		return storeerr.Store("meta-save", "", err)
	}
	return nil
}

// RecordRecovery appends a RecoveryEvent row, called by the fault-recovery
// path after archiving a crashed database directory. prefixMappings are
// stored as a JSON column purely for operator visibility into what the
// archived directory's paths would have rewritten to.
func (g *Guard) RecordRecovery(archivedDir, reason string, prefixMappings []codec.PrefixMapping) error {
	encoded, err := json.Marshal(prefixMappings)
	if err != nil {
		return storeerr.Store("meta-recovery-encode", "", err)
	}
	event := RecoveryEvent{
		ArchivedDir:    archivedDir,
		Reason:         reason,
		PrefixMappings: datatypes.JSON(encoded),
		CreatedAt:      time.Now(),
	}
	if err := g.db.Create(&event).Error; err != nil {
		return storeerr.Store("meta-recovery-insert", "", err)
	}
	return nil
}

// Close releases the metadata database's underlying connection.
func (g *Guard) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
