package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docchat/internal/adapter/memory"
	"docchat/internal/domain"
	"docchat/internal/logger"
	"docchat/internal/metrics"
	"docchat/internal/port"
	"docchat/internal/prompt"
)

// ErrNotStarted is returned by Answer before Start has been called.
var ErrNotStarted = errors.New("pipeline not started")

// State is the lifecycle state of a Pipeline.
type State int

const (
	StateUninitialized State = iota
	StateReady
	// StateDegraded answers without retrieved context.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DocumentSaver stores uploaded documents where the loader will find them.
type DocumentSaver interface {
	Dir() string
	Ensure() error
	Save(name string, data []byte) (string, error)
}

// AnswerResult is what a caller gets back from Answer.
type AnswerResult struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`

	// Degraded is set when no index was available and the answer was
	// produced without document context.
	Degraded bool `json:"degraded"`

	// Grounded is set when at least one chunk was placed in the prompt.
	Grounded bool `json:"grounded"`
}

// PipelineDeps are the collaborators a Pipeline owns for its lifetime.
type PipelineDeps struct {
	Documents DocumentSaver
	Indexer   *IndexUseCase
	Retriever *RetrieveUseCase
	Generator port.Generator
	Memory    *memory.ConversationMemory
	Persona   prompt.Persona
	Metrics   *metrics.Metrics
	Log       *slog.Logger

	// Progress receives embedding progress during rebuilds.
	Progress func(done, total int)
}

// Pipeline ties ingestion, retrieval, prompting and generation together for
// one chat session. Operations are serialised.
type Pipeline struct {
	mu sync.Mutex

	docs      DocumentSaver
	indexer   *IndexUseCase
	retriever *RetrieveUseCase
	generator port.Generator
	memory    *memory.ConversationMemory
	metrics   *metrics.Metrics
	log       *slog.Logger
	progress  func(done, total int)

	state   State
	lastErr error
	persona prompt.Persona
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	mem := deps.Memory
	if mem == nil {
		mem = memory.New(0)
	}
	persona := deps.Persona
	if !persona.Valid() {
		persona = prompt.General
	}
	return &Pipeline{
		docs:      deps.Documents,
		indexer:   deps.Indexer,
		retriever: deps.Retriever,
		generator: deps.Generator,
		memory:    mem,
		metrics:   deps.Metrics,
		log:       log,
		progress:  deps.Progress,
		state:     StateUninitialized,
		persona:   persona,
	}
}

// Start loads the persisted index, or builds one from the documents directory
// when none exists. On failure the pipeline is degraded and the error returned.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexer.Exists() {
		idx, err := p.indexer.Load()
		if err != nil {
			p.degrade(err)
			return err
		}
		p.activate(idx)
		return nil
	}

	p.log.Info("no index found, building from documents", "dir", p.docs.Dir())
	if err := p.docs.Ensure(); err != nil {
		p.degrade(err)
		return err
	}
	_, err := p.rebuild(ctx)
	return err
}

// IngestAndRebuild stores the uploads and rebuilds the index from the whole
// documents directory. Uploads sharing a name overwrite each other. On failure
// the previously active index stays in use.
func (p *Pipeline) IngestAndRebuild(ctx context.Context, uploads []domain.Upload) (*IndexResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.docs.Ensure(); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		path, err := p.docs.Save(u.Name, u.Data)
		if err != nil {
			return nil, err
		}
		p.log.Debug("document stored", "name", u.Name, "path", path, "bytes", len(u.Data))
	}
	return p.rebuild(ctx)
}

func (p *Pipeline) rebuild(ctx context.Context) (*IndexResult, error) {
	start := time.Now()
	idx, result, err := p.indexer.Rebuild(ctx, p.docs.Dir(), p.progress)
	p.metrics.ObserveRebuild(err, time.Since(start))

	if err != nil {
		switch {
		case ctx.Err() != nil:
			p.log.Info("rebuild canceled", "state", p.state)
		case p.state == StateReady:
			p.log.Warn("rebuild failed, keeping previous index", "error", err)
		default:
			p.degrade(err)
		}
		return nil, err
	}

	p.activate(idx)
	return result, nil
}

func (p *Pipeline) activate(idx port.VectorIndex) {
	p.retriever.SetIndex(idx)
	p.metrics.SetIndexEntries(idx.Count())
	p.state = StateReady
	p.lastErr = nil
}

func (p *Pipeline) degrade(err error) {
	p.retriever.SetIndex(nil)
	p.metrics.SetIndexEntries(0)
	p.state = StateDegraded
	p.lastErr = err
	p.log.Error("index unavailable, answering without document context", "error", err)
}

// Answer retrieves context, renders the prompt for persona and asks the
// generator. An empty persona uses the active one. The question and answer
// are recorded only when the whole operation succeeds.
func (p *Pipeline) Answer(ctx context.Context, question, persona string) (*AnswerResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text, scored, err := p.buildPrompt(ctx, question, persona)
	if err != nil {
		p.metrics.ObserveAnswerFailure(failureKind(err))
		return nil, err
	}

	answer, err := p.generator.Generate(ctx, text)
	if err != nil {
		p.metrics.ObserveAnswerFailure(failureKind(err))
		return nil, err
	}

	p.memory.AppendExchange(question, answer)

	degraded := p.state == StateDegraded
	grounded := len(scored) > 0
	p.metrics.ObserveAnswer(degraded, grounded)
	return &AnswerResult{
		Answer:   answer,
		Sources:  Sources(scored),
		Degraded: degraded,
		Grounded: grounded,
	}, nil
}

// Prompt returns the prompt Answer would send, without generating or
// touching the history.
func (p *Pipeline) Prompt(ctx context.Context, question, persona string) (string, []domain.ScoredChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buildPrompt(ctx, question, persona)
}

func (p *Pipeline) buildPrompt(ctx context.Context, question, persona string) (string, []domain.ScoredChunk, error) {
	if p.state == StateUninitialized {
		return "", nil, ErrNotStarted
	}

	active := p.persona
	if persona != "" {
		parsed, err := prompt.ParsePersona(persona)
		if err != nil {
			return "", nil, err
		}
		active = parsed
	}

	var scored []domain.ScoredChunk
	if p.state == StateReady {
		var err error
		scored, err = p.retriever.RetrieveScored(ctx, question)
		if err != nil {
			return "", nil, err
		}
	}

	chunks := make([]domain.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}

	text, err := prompt.Assemble(active, p.memory.Render(), chunks, question)
	if err != nil {
		return "", nil, err
	}
	return text, scored, nil
}

// SelectPersona changes the active persona. An unknown name leaves it as is.
func (p *Pipeline) SelectPersona(name string) error {
	parsed, err := prompt.ParsePersona(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.persona = parsed
	return nil
}

func (p *Pipeline) ActivePersona() prompt.Persona {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.persona
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastError returns the error that degraded the pipeline, if any.
func (p *Pipeline) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// History returns the conversation so far.
func (p *Pipeline) History() []domain.ConversationTurn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memory.Turns()
}

func (p *Pipeline) ResetHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memory.Reset()
}

// IndexInfo describes the active index. ok is false without one.
func (p *Pipeline) IndexInfo() (info domain.IndexInfo, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	type described interface{ Info() domain.IndexInfo }
	if d, isDescribed := p.retriever.Index().(described); isDescribed {
		return d.Info(), true
	}
	return domain.IndexInfo{}, false
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrEmbedding):
		return "embedding"
	case errors.Is(err, domain.ErrGeneration):
		return "generation"
	case errors.Is(err, domain.ErrConfig):
		return "config"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	}
	return "other"
}
