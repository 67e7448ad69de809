// Package repayments loads the obligation pool a statement is matched against.
package repayments

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/reconcile/internal/model"
)

// FileName is the default pool file at the workspace root.
const FileName = "repayments.csv"

// Service provides in-memory lookup over a repayment pool.
type Service struct {
	repayments []model.Repayment
	byID       map[string]model.Repayment
}

// NewService creates a Service from a slice of repayments.
func NewService(repayments []model.Repayment) *Service {
	byID := make(map[string]model.Repayment, len(repayments))
	for _, r := range repayments {
		byID[r.ID] = r
	}
	return &Service{repayments: repayments, byID: byID}
}

// Load reads a repayments CSV file and returns a Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening repayments: %w", err)
	}
	defer f.Close()

	rps, err := ReadRepayments(f)
	if err != nil {
		return nil, fmt.Errorf("reading repayments %s: %w", path, err)
	}
	return NewService(rps), nil
}

// All returns all repayments in file order.
func (s *Service) All() []model.Repayment {
	return s.repayments
}

// Get returns a repayment by ID.
func (s *Service) Get(id string) (model.Repayment, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Outstanding returns the pending and overdue repayments.
func (s *Service) Outstanding() []model.Repayment {
	var out []model.Repayment
	for _, r := range s.repayments {
		if r.Outstanding() {
			out = append(out, r)
		}
	}
	return out
}

// Pool returns the repayments as obligations, preserving file order.
func (s *Service) Pool() []model.Obligation {
	pool := make([]model.Obligation, len(s.repayments))
	for i, r := range s.repayments {
		pool[i] = r
	}
	return pool
}

// Save writes the pool to <dir>/repayments.csv.
func (s *Service) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating repayments dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, FileName))
	if err != nil {
		return fmt.Errorf("creating repayments file: %w", err)
	}
	defer f.Close()

	if err := WriteRepayments(f, s.repayments); err != nil {
		return fmt.Errorf("writing repayments: %w", err)
	}
	return nil
}
