package repository

import (
	"context"
	"errors"

	"outreach_backend/internal/leads/domain"
)

var ErrNotFound = errors.New("lead not found")

// DefaultRowCap bounds the bulk fetch. No pagination cursor is used.
const DefaultRowCap = 1000

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader fetches the whole lead list, highest score first.
type LeadReader interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
}

// LeadWriter patches leads by id or by id set. A batch patch is one remote call.
type LeadWriter interface {
	PatchLead(ctx context.Context, id domain.LeadID, patch domain.Patch) error
	PatchLeads(ctx context.Context, ids []domain.LeadID, patch domain.Patch) error
}

// LeadStore is the full lead store contract.
type LeadStore interface {
	LeadReader
	LeadWriter
}

// Compile-time checks
var (
	_ LeadStore = (*PostgRESTStore)(nil)
	_ LeadStore = (*PostgresStore)(nil)
)
