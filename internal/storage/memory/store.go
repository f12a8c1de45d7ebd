package memory

import (
	"context" // request-scoped context, part of the AuditStore contract
	"sync"    // RWMutex guarding the slice and the index

	interfaces "github.com/sheikh-saqib/bank-atm-ledger/internal/interfaces" // interface AuditStore
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"                // domain models: Transaction
)

// MemoryAuditStore is an in-memory implementation of interfaces.AuditStore.
// Entries live in a slice in append order; an index per account keeps
// per-account reads from scanning the whole log.
type MemoryAuditStore struct {
	mu        sync.RWMutex         // protects entries and byAccount
	entries   []models.Transaction // slice that holds all audit entries in append order
	byAccount map[string][]int     // account number -> positions in entries
}

// NewMemoryAuditStore creates and returns an empty MemoryAuditStore
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{
		entries:   make([]models.Transaction, 0), // initialize an empty slice of entries
		byAccount: make(map[string][]int),        // initialize an empty index
	}
}

// SaveEntry appends an entry. It always succeeds in memory.
func (m *MemoryAuditStore) SaveEntry(ctx context.Context, entry models.Transaction) error {
	m.mu.Lock()         // lock the mutex to prevent concurrent writes
	defer m.mu.Unlock() // unlock automatically when function exits

	// index the position the entry is about to take
	m.byAccount[entry.AccountNumber] = append(m.byAccount[entry.AccountNumber], len(m.entries))
	m.entries = append(m.entries, entry) // append the new entry to the slice
	return nil                           // always succeeds in memory, so returns nil
}

// GetEntries returns a copy of all entries so callers can't modify internal state.
func (m *MemoryAuditStore) GetEntries(ctx context.Context) ([]models.Transaction, error) {
	m.mu.RLock()         // readers may run together, writers wait
	defer m.mu.RUnlock() // unlock automatically at the end

	// create a new slice to copy entries
	copied := make([]models.Transaction, len(m.entries))
	copy(copied, m.entries) // copy all entries to the new slice
	return copied, nil      // return the copy so external code can't modify internal state
}

// GetEntriesByAccount returns the entries of one account in append order.
func (m *MemoryAuditStore) GetEntriesByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	m.mu.RLock()         // lock for reading while we walk the index
	defer m.mu.RUnlock() // unlock automatically when function exits

	positions := m.byAccount[accountNumber] // positions are already in append order
	result := make([]models.Transaction, 0, len(positions))
	for _, p := range positions {
		result = append(result, m.entries[p]) // copied by value
	}
	return result, nil // empty, never nil, for an unknown account
}

// Reset drops every entry.
func (m *MemoryAuditStore) Reset(ctx context.Context) error {
	m.mu.Lock()         // lock the mutex to prevent concurrent writes
	defer m.mu.Unlock() // unlock automatically when function exits

	m.entries = make([]models.Transaction, 0) // fresh slice, old entries are dropped
	m.byAccount = make(map[string][]int)      // and their index with them
	return nil
}

// Compile-time check: ensure MemoryAuditStore implements AuditStore interface
var _ interfaces.AuditStore = (*MemoryAuditStore)(nil)
