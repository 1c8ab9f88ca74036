// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lihtcrag/core"
)

// Index file names, relative to the index directory.
const (
	MasterChunkFile      = "master_chunk_index.json"
	AuthorityFile        = "authority_index.json"
	EffectiveDateFile    = "effective_date_index.json"
	CrossRefFile         = "federal_state_cross_ref_index.json"
	FederalContentFile   = "federal_content_index.json"
	FederalEntityFile    = "federal_entity_index.json"
	FederalSectionFile   = "federal_section_index.json"
	SearchConfigFile     = "unified_search_config.json"
	ConflictResolverFile = "authority_conflict_resolver.json"
)

// KnownFiles lists every index file Open looks for.
var KnownFiles = []string{
	MasterChunkFile,
	AuthorityFile,
	EffectiveDateFile,
	CrossRefFile,
	FederalContentFile,
	FederalEntityFile,
	FederalSectionFile,
	SearchConfigFile,
	ConflictResolverFile,
}

// Availability reports which index files were usable.
type Availability struct {
	Dir       string   `json:"dir"`
	Loaded    []string `json:"loaded"`
	Missing   []string `json:"missing"`
	Malformed []string `json:"malformed"`
}

// DateBucket is one bucket of the effective-date index.
type DateBucket struct {
	Key    string
	Chunks []core.Chunk
}

// Store is the read-only view over the loaded indexes.
type Store struct {
	dir      string
	poolSize int
	logger   *slog.Logger

	master         map[string]core.Chunk
	federalContent map[string]core.Chunk
	authority      map[core.AuthorityLevel][]core.Chunk
	dates          []DateBucket
	mappings       []core.MappingEntry
	entities       map[string]map[string][]string
	sections       map[string][]string
	searchConfig   SearchConfig
	resolverRules  []ResolverRule

	// byID holds authority and date records for Chunk fallback lookups.
	byID map[string]core.Chunk

	mu        sync.Mutex
	available Availability
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets how many index files are parsed at once.
// Default is the number of known files.
func WithPoolSize(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidPoolSize, size)
		}
		s.poolSize = size
		return nil
	}
}

// Open loads every known index file found in dir.
// Index content never causes an error; only invalid options do.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:          dir,
		poolSize:     len(KnownFiles),
		logger:       slog.Default(),
		searchConfig: DefaultSearchConfig(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "index")
	s.available.Dir = dir

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	loaders := map[string]func([]byte) error{
		MasterChunkFile:      s.loadMaster,
		AuthorityFile:        s.loadAuthority,
		EffectiveDateFile:    s.loadDates,
		CrossRefFile:         s.loadCrossRefs,
		FederalContentFile:   s.loadFederalContent,
		FederalEntityFile:    s.loadEntities,
		FederalSectionFile:   s.loadSections,
		SearchConfigFile:     s.loadSearchConfig,
		ConflictResolverFile: s.loadResolver,
	}

	var wg sync.WaitGroup
	for _, name := range KnownFiles {
		load := loaders[name]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			s.loadFile(name, load)
		}
		if err := pool.Submit(task); err != nil {
			// Pool refused the task; parse inline instead
			task()
		}
	}
	wg.Wait()

	s.finalize()
	s.logger.Info("indexes loaded",
		"dir", dir,
		"loaded", len(s.available.Loaded),
		"missing", len(s.available.Missing),
		"malformed", len(s.available.Malformed))
	return s, nil
}

// loadFile reads and parses one file, recording the outcome.
func (s *Store) loadFile(name string, load func([]byte) error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("index file not found", "file", name)
			s.record(&s.available.Missing, name)
		} else {
			s.logger.Warn("failed to read index file", "file", name, "err", err)
			s.record(&s.available.Malformed, name)
		}
		return
	}
	if err := load(data); err != nil {
		s.logger.Warn("failed to parse index file", "file", name, "err", err)
		s.record(&s.available.Malformed, name)
		return
	}
	s.record(&s.available.Loaded, name)
}

func (s *Store) record(list *[]string, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*list = append(*list, name)
}

// decode unmarshals data, wrapping failures as ErrMalformedIndex.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedIndex, err)
	}
	return nil
}

func parseChunkFile(data []byte) (map[string]core.Chunk, error) {
	var file chunkFile
	if err := decode(data, &file); err != nil {
		return nil, err
	}
	if file.Chunks == nil {
		return nil, fmt.Errorf("%w: missing \"chunks\" object", ErrMalformedIndex)
	}
	chunks := make(map[string]core.Chunk, len(file.Chunks))
	for id, rec := range file.Chunks {
		chunk := rec.toChunk(id, "")
		chunks[chunk.ID] = chunk
	}
	return chunks, nil
}

func (s *Store) loadMaster(data []byte) error {
	chunks, err := parseChunkFile(data)
	if err != nil {
		return err
	}
	s.master = chunks
	return nil
}

func (s *Store) loadFederalContent(data []byte) error {
	chunks, err := parseChunkFile(data)
	if err != nil {
		return err
	}
	s.federalContent = chunks
	return nil
}

func (s *Store) loadAuthority(data []byte) error {
	var file map[string][]chunkRecord
	if err := decode(data, &file); err != nil {
		return err
	}
	buckets := make(map[core.AuthorityLevel][]core.Chunk, len(file))
	for level, records := range file {
		lvl := core.AuthorityLevel(level)
		if !lvl.IsKnown() {
			s.logger.Warn("unknown authority level in index", "level", level)
		}
		for _, rec := range records {
			buckets[lvl] = append(buckets[lvl], rec.toChunk("", lvl))
		}
	}
	s.authority = buckets
	return nil
}

func (s *Store) loadDates(data []byte) error {
	var file map[string][]chunkRecord
	if err := decode(data, &file); err != nil {
		return err
	}
	keys := make([]string, 0, len(file))
	for key := range file {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	buckets := make([]DateBucket, 0, len(keys))
	for _, key := range keys {
		bucket := DateBucket{Key: key}
		for _, rec := range file[key] {
			chunk := rec.toChunk("", "")
			if chunk.EffectiveDate.Raw == "" {
				chunk.EffectiveDate = core.ParseEffectiveDate(key)
			}
			bucket.Chunks = append(bucket.Chunks, chunk)
		}
		buckets = append(buckets, bucket)
	}
	s.dates = buckets
	return nil
}

func (s *Store) loadCrossRefs(data []byte) error {
	var file crossRefFile
	if err := decode(data, &file); err != nil {
		return err
	}
	if file.Mappings == nil {
		return fmt.Errorf("%w: missing \"mappings\" object", ErrMalformedIndex)
	}
	mappings := make([]core.MappingEntry, 0, len(file.Mappings))
	for id, rec := range file.Mappings {
		mappings = append(mappings, core.MappingEntry{
			FederalChunkID:     id,
			SectionReference:   rec.SectionReference,
			ImplementingStates: core.NormalizeStateCodes(rec.ImplementingStates),
			CitationContexts:   rec.CitationContexts,
		})
	}
	slices.SortFunc(mappings, func(a, b core.MappingEntry) int {
		return strings.Compare(a.FederalChunkID, b.FederalChunkID)
	})
	s.mappings = mappings
	return nil
}

func (s *Store) loadEntities(data []byte) error {
	var file map[string]map[string][]string
	if err := decode(data, &file); err != nil {
		return err
	}
	s.entities = file
	return nil
}

func (s *Store) loadSections(data []byte) error {
	var file map[string][]string
	if err := decode(data, &file); err != nil {
		return err
	}
	s.sections = file
	return nil
}

func (s *Store) loadSearchConfig(data []byte) error {
	var cfg SearchConfig
	if err := decode(data, &cfg); err != nil {
		return err
	}
	s.searchConfig = cfg.withDefaults()
	return nil
}

func (s *Store) loadResolver(data []byte) error {
	var file resolverFile
	if err := decode(data, &file); err != nil {
		return err
	}
	// Ranking always uses the built-in table; a diverging file is only reported
	for level, score := range file.Hierarchy {
		if core.AuthorityLevel(level).Score() != score {
			s.logger.Warn("resolver hierarchy differs from built-in scores; ignoring",
				"level", level, "file_score", score, "score", core.AuthorityLevel(level).Score())
		}
	}
	s.resolverRules = file.Rules
	return nil
}

// finalize fills sparse records from the master and federal content
// indexes and builds the fallback lookup table.
func (s *Store) finalize() {
	s.byID = make(map[string]core.Chunk)
	for level, chunks := range s.authority {
		for i := range chunks {
			chunks[i] = s.complete(chunks[i])
			s.byID[chunks[i].ID] = chunks[i]
		}
		s.authority[level] = chunks
	}
	for b := range s.dates {
		for i := range s.dates[b].Chunks {
			chunk := s.complete(s.dates[b].Chunks[i])
			s.dates[b].Chunks[i] = chunk
			if _, ok := s.byID[chunk.ID]; !ok {
				s.byID[chunk.ID] = chunk
			}
		}
	}
	for _, list := range [][]string{s.available.Loaded, s.available.Missing, s.available.Malformed} {
		slices.Sort(list)
	}
}

func (s *Store) complete(chunk core.Chunk) core.Chunk {
	if base, ok := s.master[chunk.ID]; ok {
		chunk = mergeChunk(chunk, base)
	}
	if base, ok := s.federalContent[chunk.ID]; ok {
		chunk = mergeChunk(chunk, base)
	}
	return chunk
}

// ChunkContent returns the chunk's text from the master index, then the
// federal content index. It returns "" when neither has it.
func (s *Store) ChunkContent(id string) string {
	if c, ok := s.master[id]; ok && c.Content != "" {
		return c.Content
	}
	if c, ok := s.federalContent[id]; ok {
		return c.Content
	}
	return ""
}

// Chunk returns the full chunk for id.
func (s *Store) Chunk(id string) (core.Chunk, bool) {
	if c, ok := s.master[id]; ok {
		if c.Content == "" {
			c.Content = s.ChunkContent(id)
		}
		return c, true
	}
	if c, ok := s.byID[id]; ok {
		return c, true
	}
	if c, ok := s.federalContent[id]; ok {
		return c, true
	}
	return core.Chunk{}, false
}

// AuthorityBucket returns the chunks indexed under level.
// The slice is shared; callers must not modify it.
func (s *Store) AuthorityBucket(level core.AuthorityLevel) []core.Chunk {
	return s.authority[level]
}

// DateBuckets returns the effective-date buckets ordered by key.
func (s *Store) DateBuckets() []DateBucket {
	return s.dates
}

// Mappings returns every federal-state mapping ordered by federal chunk ID.
func (s *Store) Mappings() []core.MappingEntry {
	return s.mappings
}

// EntityTypes returns the entity types in the entity index, sorted.
func (s *Store) EntityTypes() []string {
	types := make([]string, 0, len(s.entities))
	for t := range s.entities {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Entities returns the value → chunk IDs table for an entity type.
func (s *Store) Entities(entityType string) map[string][]string {
	return s.entities[entityType]
}

// SectionChunks returns the chunk IDs filed under a section reference.
func (s *Store) SectionChunks(ref string) []string {
	return s.sections[ref]
}

// SearchConfig returns the façade defaults.
func (s *Store) SearchConfig() SearchConfig {
	return s.searchConfig
}

// ResolverRules returns the documented conflict-resolution rules.
func (s *Store) ResolverRules() []ResolverRule {
	return s.resolverRules
}

// Availability reports which index files were loaded, missing or malformed.
func (s *Store) Availability() Availability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Availability{
		Dir:       s.available.Dir,
		Loaded:    slices.Clone(s.available.Loaded),
		Missing:   slices.Clone(s.available.Missing),
		Malformed: slices.Clone(s.available.Malformed),
	}
}

// Empty reports whether no index file was loaded.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.available.Loaded) == 0
}
