// Package staging reviews goals that a run could not link to a program.
package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/resolve"
)

var (
	ErrNotFound        = errors.New("staged goal not found")
	ErrProgramNotFound = errors.New("program not found in document")
)

// StagedGoal is an unresolved goal waiting for review.
type StagedGoal struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Goal       report.Goal
	CreatedAt  time.Time
}

// Program is a persisted program a goal can be assigned to.
type Program struct {
	ID               uuid.UUID
	JurisdictionCode string
	Code             *string
	Name             string
}

// Candidate is a program suggested for a staged goal.
type Candidate struct {
	Program Program
	Score   int
}

type ListFilter struct {
	DocumentID *uuid.UUID
}

//go:generate mockgen -source=service.go -destination=service_mock.go -package=staging
type Repository interface {
	ListStaged(ctx context.Context, filter ListFilter) ([]*StagedGoal, error)
	GetStaged(ctx context.Context, id uuid.UUID) (*StagedGoal, error)
	ListPrograms(ctx context.Context, documentID uuid.UUID) ([]Program, error)
	// Assign moves the staged goal into the goals of programID.
	Assign(ctx context.Context, id, programID uuid.UUID) error
	Discard(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*StagedGoal, error) {
	return s.repo.ListStaged(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*StagedGoal, error) {
	return s.repo.GetStaged(ctx, id)
}

// Programs lists the programs a goal of the document can be assigned to.
func (s *Service) Programs(ctx context.Context, documentID uuid.UUID) ([]Program, error) {
	return s.repo.ListPrograms(ctx, documentID)
}

// Suggest ranks the programs of the goal's document. A matching program
// code weighs most, then the program name, then the jurisdiction.
func (s *Service) Suggest(ctx context.Context, id uuid.UUID) ([]Candidate, error) {
	staged, err := s.repo.GetStaged(ctx, id)
	if err != nil {
		return nil, err
	}

	programs, err := s.repo.ListPrograms(ctx, staged.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}

	var out []Candidate

	for _, p := range programs {
		if score := score(staged.Goal, p); score > 0 {
			out = append(out, Candidate{Program: p, Score: score})
		}
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return b.Score - a.Score
	})

	return out, nil
}

func score(g report.Goal, p Program) int {
	total := 0

	if code := strings.TrimSpace(g.ProgramCode); code != "" && p.Code != nil && *p.Code == code {
		total += 4
	}

	if name := resolve.Normalize(g.ProgramName); name != "" {
		pname := resolve.Normalize(p.Name)

		switch {
		case pname == name:
			total += 3
		case strings.Contains(pname, name) || strings.Contains(name, pname):
			total += 2
		}
	}

	if g.JurisdictionCode != "" && g.JurisdictionCode == p.JurisdictionCode {
		total++
	}

	return total
}

// Assign links a staged goal to a program of the same document.
func (s *Service) Assign(ctx context.Context, id, programID uuid.UUID) error {
	staged, err := s.repo.GetStaged(ctx, id)
	if err != nil {
		return err
	}

	programs, err := s.repo.ListPrograms(ctx, staged.DocumentID)
	if err != nil {
		return fmt.Errorf("listing programs: %w", err)
	}

	if !slices.ContainsFunc(programs, func(p Program) bool { return p.ID == programID }) {
		return ErrProgramNotFound
	}

	if err := s.repo.Assign(ctx, id, programID); err != nil {
		return fmt.Errorf("assigning goal: %w", err)
	}

	slog.Info("staged goal assigned", "staged_id", id, "program_id", programID, "goal", staged.Goal.Name)

	return nil
}

func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Discard(ctx, id); err != nil {
		return err
	}

	slog.Info("staged goal discarded", "staged_id", id)

	return nil
}
