package store

import (
	"fmt"

	"docchat/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

func checkSchema(info domain.IndexInfo) error {
	switch {
	case info.SchemaVersion == 0:
		return fmt.Errorf("schema version missing")
	case info.SchemaVersion > CurrentSchemaVersion:
		return fmt.Errorf("index created by newer version (v%d > v%d)", info.SchemaVersion, CurrentSchemaVersion)
	case info.SchemaVersion < CurrentSchemaVersion:
		// no older formats exist yet; a rebuild is the only upgrade path
		return fmt.Errorf("schema v%d is no longer supported, rebuild the index", info.SchemaVersion)
	}
	if info.Dimension < 0 || info.Entries < 0 {
		return fmt.Errorf("invalid metadata")
	}
	return nil
}

// BuildParams are the settings an index depends on.
type BuildParams struct {
	Model        string
	ChunkSize    int
	ChunkOverlap int
}

// StaleReason reports why an index built with info no longer matches the
// given settings. The empty string means it is current.
func StaleReason(info domain.IndexInfo, p BuildParams) string {
	switch {
	case p.Model != "" && info.Model != p.Model:
		return fmt.Sprintf("embedding model changed (%s -> %s)", info.Model, p.Model)
	case p.ChunkSize > 0 && info.ChunkSize != p.ChunkSize:
		return fmt.Sprintf("chunk size changed (%d -> %d)", info.ChunkSize, p.ChunkSize)
	case p.ChunkSize > 0 && info.ChunkOverlap != p.ChunkOverlap:
		return fmt.Sprintf("chunk overlap changed (%d -> %d)", info.ChunkOverlap, p.ChunkOverlap)
	}
	return ""
}
