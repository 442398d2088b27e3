package domain

import "time"

// RawDocumentUnit is the text of one page of a source document.
type RawDocumentUnit struct {
	SourcePath string
	PageNumber int // 1-based; 0 when the source has no pages
	Text       string
}

type Chunk struct {
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
	PageNumber int    `json:"page_number,omitempty"`
	CharStart  int    `json:"char_start"`
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// IndexEntry pairs a chunk with its embedding.
type IndexEntry struct {
	Chunk  Chunk     `json:"chunk"`
	Vector []float32 `json:"vector"`
}

// IndexInfo is the metadata persisted alongside the index entries.
type IndexInfo struct {
	SchemaVersion int       `json:"schema_version"`
	BuildID       string    `json:"build_id"`
	BuiltAt       time.Time `json:"built_at"`
	Model         string    `json:"model"`
	Dimension     int       `json:"dimension"`
	Entries       int       `json:"entries"`
	ChunkSize     int       `json:"chunk_size"`
	ChunkOverlap  int       `json:"chunk_overlap"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationTurn struct {
	Role    Role
	Content string
}

// Upload is a named blob handed to ingestion.
type Upload struct {
	Name string
	Data []byte
}

// Source is a document cited by an answer, with the pages that contributed.
type Source struct {
	Path  string  `json:"path"`
	Pages []int   `json:"pages"`
	Score float64 `json:"score"`
}
