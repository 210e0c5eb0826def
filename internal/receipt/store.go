package receipt

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store defines the interface for score storage operations
type Store interface {
	// Put records the scoring result under a fresh identifier and returns the stored record
	Put(points int, rules []RuleScore) (*ScoreRecord, error)

	// Get retrieves a score record by ID, returning ErrNotFound if it does not exist
	Get(id string) (*ScoreRecord, error)
}

// IDGenerator generates identifiers for score records
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random (version 4) UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// maxIDAttempts bounds retries when a generator repeats a live identifier
const maxIDAttempts = 8

// MemoryStore implements the Store interface with an in-process map.
// Records live until the process exits.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]*ScoreRecord
	idGenerator IDGenerator
}

// NewMemoryStore creates a new MemoryStore using random UUIDs
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithGenerator(UUIDGenerator{})
}

// NewMemoryStoreWithGenerator creates a new MemoryStore with a custom ID generator for testing
func NewMemoryStoreWithGenerator(idGen IDGenerator) *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]*ScoreRecord),
		idGenerator: idGen,
	}
}

// Put stores a new record. ID assignment and insertion happen under one lock so
// concurrent callers always receive distinct identifiers.
func (m *MemoryStore) Put(points int, rules []RuleScore) (*ScoreRecord, error) {
	if points < 0 {
		return nil, fmt.Errorf("negative points: %d", points)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for range maxIDAttempts {
		id := m.idGenerator.Generate()
		if _, taken := m.records[id]; taken || id == "" {
			continue
		}
		record := &ScoreRecord{
			ID:     id,
			Points: points,
			Rules:  append([]RuleScore(nil), rules...),
		}
		m.records[id] = record
		return copyRecord(record), nil
	}
	return nil, fmt.Errorf("generating unique id: gave up after %d attempts", maxIDAttempts)
}

// Get retrieves a record by ID
func (m *MemoryStore) Get(id string) (*ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyRecord(record), nil
}

// Len returns the number of stored records
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// copyRecord keeps callers from mutating stored records
func copyRecord(r *ScoreRecord) *ScoreRecord {
	c := *r
	c.Rules = append([]RuleScore(nil), r.Rules...)
	return &c
}
