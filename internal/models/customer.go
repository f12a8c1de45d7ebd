package models

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Customer is an account holder. Identity is the id; the name is display only.
// The customer keeps account numbers, not accounts: the orchestrator owns the
// accounts and resolves numbers through its registry.
type Customer struct {
	id   uuid.UUID
	name string

	mu       sync.RWMutex
	accounts map[string]struct{}
}

// NewCustomer creates a customer with the given identity.
func NewCustomer(id uuid.UUID, name string) *Customer {
	return &Customer{
		id:       id,
		name:     name,
		accounts: make(map[string]struct{}),
	}
}

func (c *Customer) ID() uuid.UUID { return c.id }

func (c *Customer) Name() string { return c.name }

// Equal reports whether both values refer to the same customer.
func (c *Customer) Equal(other *Customer) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.id == other.id
}

// AddAccount records a reference to an account number. Adding the same
// number twice has no effect.
func (c *Customer) AddAccount(accountNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[accountNumber] = struct{}{}
}

// Owns reports whether the customer references the account number.
func (c *Customer) Owns(accountNumber string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.accounts[accountNumber]
	return ok
}

// AccountNumbers returns the referenced account numbers in sorted order.
func (c *Customer) AccountNumbers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.accounts))
	for n := range c.accounts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (c *Customer) String() string {
	return "Customer{id=" + c.id.String() + ", name=" + c.name + "}"
}
