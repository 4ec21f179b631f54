// Package ingest runs an extraction strategy over an uploaded document and
// reconciles the extracted rows into the database.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/extract"
	"github.com/MrJamesThe3rd/muniledger/internal/parser"
	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/resolve"
	"github.com/MrJamesThe3rd/muniledger/internal/workbook"
)

var (
	ErrUnsupportedType   = errors.New("unsupported document type")
	ErrNoStoragePath     = errors.New("document has no stored file")
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrExtractorDisabled = errors.New("language model extraction is not configured")
)

// Strategy selects how rows are extracted from a document.
type Strategy string

const (
	StrategyParsers    Strategy = "parsers"
	StrategySingleShot Strategy = "single_shot"
	StrategyScoped     Strategy = "scoped"
)

func Strategies() []Strategy {
	return []Strategy{StrategyParsers, StrategySingleShot, StrategyScoped}
}

// ParseStrategy maps a name to its strategy. An empty name selects parsers.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyParsers, nil
	}

	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// replacesFlatTables reports whether the strategy extracts the per-document
// tables (resources, expenses, treasury, accounts, balance sheet). The scoped
// strategy only covers jurisdictions, programs and goals.
func (st Strategy) replacesFlatTables() bool {
	return st != StrategyScoped
}

//go:generate mockgen -source=service.go -destination=service_mock.go -package=ingest
type DocumentSource interface {
	Get(ctx context.Context, id uuid.UUID) (*document.Document, error)
	Content(ctx context.Context, d *document.Document) ([]byte, error)
}

type Extractor interface {
	Document(ctx context.Context, in extract.Input) (report.Payload, error)
	Scoped(ctx context.Context, in extract.Input) (report.Payload, error)
	Upload(ctx context.Context, data []byte, mimeType string) (*extract.FileRef, error)
}

type Events interface {
	Event(ctx context.Context, name string, detail any)
}

type Config struct {
	StagingEnabled bool
}

type Service struct {
	repo      Repository
	docs      DocumentSource
	registry  *parser.Registry
	extractor Extractor
	events    Events
	cfg       Config
}

// NewService wires a run pipeline. extractor may be nil, in which case only
// the parsers strategy is available.
func NewService(repo Repository, docs DocumentSource, registry *parser.Registry, extractor Extractor, events Events, cfg Config) *Service {
	return &Service{
		repo:      repo,
		docs:      docs,
		registry:  registry,
		extractor: extractor,
		events:    events,
		cfg:       cfg,
	}
}

func (s *Service) event(ctx context.Context, name string, detail map[string]any) {
	if s.events != nil {
		s.events.Event(ctx, name, detail)
	}
}

// Run extracts and persists a document. The document always ends up
// completed or error, the latter carrying the failure message.
func (s *Service) Run(ctx context.Context, id uuid.UUID, strategy Strategy) (*report.Summary, error) {
	strategy, err := ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	summary := report.NewSummary(string(strategy))
	s.event(ctx, "run_started", map[string]any{"document_id": id, "strategy": strategy})

	switch {
	case !doc.IsSiteco():
		return summary, s.fail(ctx, id, summary, fmt.Errorf("%w: %s", ErrUnsupportedType, doc.Type))
	case doc.StoragePath == "":
		return summary, s.fail(ctx, id, summary, ErrNoStoragePath)
	}

	if err := s.repo.UpdateStatus(ctx, id, report.StatusProcessing, nil); err != nil {
		return nil, fmt.Errorf("marking document processing: %w", err)
	}

	if err := s.process(ctx, doc, strategy, summary); err != nil {
		return summary, s.fail(ctx, id, summary, err)
	}

	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), id, report.StatusCompleted, summary); err != nil {
		return summary, s.fail(ctx, id, summary, fmt.Errorf("marking document completed: %w", err))
	}

	slog.Info("document ingested", "document_id", id, "strategy", strategy,
		"warnings", len(summary.Warnings), "unresolved_goals", summary.UnresolvedGoals)
	s.event(ctx, "run_completed", map[string]any{"document_id": id, "counts": summary.Counts})

	return summary, nil
}

func (s *Service) fail(ctx context.Context, id uuid.UUID, summary *report.Summary, cause error) error {
	summary.Error = cause.Error()

	slog.Error("ingest failed", "document_id", id, "error", cause)
	s.event(ctx, "run_failed", map[string]any{"document_id": id, "error": cause.Error()})

	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), id, report.StatusError, summary); err != nil {
		return errors.Join(cause, fmt.Errorf("marking document error: %w", err))
	}

	return cause
}

func (s *Service) process(ctx context.Context, doc *document.Document, strategy Strategy, summary *report.Summary) error {
	data, err := s.docs.Content(ctx, doc)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	payload, err := s.extract(ctx, doc, data, strategy)
	if err != nil {
		return err
	}

	summary.Warn(payload.Warnings...)
	s.event(ctx, "extracted", map[string]any{
		"document_id":   doc.ID,
		"resources":     len(payload.Resources),
		"expenses":      len(payload.Expenses),
		"jurisdictions": len(payload.Jurisdictions),
		"programs":      len(payload.Programs),
		"goals":         len(payload.Goals),
		"warnings":      len(payload.Warnings),
	})

	sc := scope{documentID: doc.ID, municipality: doc.Municipality}

	if strategy.replacesFlatTables() {
		if err := s.replaceFlat(ctx, sc, payload, summary); err != nil {
			return err
		}
	}

	jurisdictionIDs, err := s.writeJurisdictions(ctx, sc, payload.Jurisdictions, summary)
	if err != nil {
		return err
	}

	known, err := s.writePrograms(ctx, sc, payload, jurisdictionIDs, summary)
	if err != nil {
		return err
	}

	return s.writeGoals(ctx, sc, payload.Goals, known, summary)
}

func (s *Service) extract(ctx context.Context, doc *document.Document, data []byte, strategy Strategy) (report.Payload, error) {
	if strategy == StrategyParsers {
		return s.parse(doc, data)
	}

	if s.extractor == nil {
		return report.Payload{}, ErrExtractorDisabled
	}

	in, err := s.input(ctx, doc, data)
	if err != nil {
		return report.Payload{}, err
	}

	switch strategy {
	case StrategySingleShot:
		return s.extractor.Document(ctx, in)
	case StrategyScoped:
		return s.extractor.Scoped(ctx, in)
	case StrategyParsers:
	}

	return report.Payload{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

func (s *Service) parse(doc *document.Document, data []byte) (report.Payload, error) {
	if doc.Format == document.FormatXLSX {
		p, err := workbook.Read(bytes.NewReader(data))
		if err != nil {
			return report.Payload{}, fmt.Errorf("reading workbook: %w", err)
		}

		return p, nil
	}

	pages, err := s.pages(doc, data)
	if err != nil {
		return report.Payload{}, err
	}

	res, err := s.registry.ParseAll(pdftext.Join(pages))
	if err != nil {
		return report.Payload{}, fmt.Errorf("parsing document: %w", err)
	}

	p := res.Rows
	p.Warnings = append(p.Warnings, res.Messages()...)

	return p, nil
}

func (s *Service) pages(doc *document.Document, data []byte) ([]pdftext.Page, error) {
	var (
		pages []pdftext.Page
		err   error
	)

	switch doc.Format {
	case document.FormatPDF:
		pages, err = pdftext.FromPDF(data)
	case document.FormatText:
		pages, err = pdftext.FromText(bytes.NewReader(data))
	case document.FormatXLSX:
		pages, err = workbook.Pages(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: format %q", document.ErrInvalidFile, doc.Format)
	}

	if err != nil {
		return nil, fmt.Errorf("reading document text: %w", err)
	}

	return pages, nil
}

// input builds the model input. A PDF without a text layer is uploaded to
// the provider instead.
func (s *Service) input(ctx context.Context, doc *document.Document, data []byte) (extract.Input, error) {
	pages, err := s.pages(doc, data)

	switch {
	case errors.Is(err, pdftext.ErrNoText) && doc.Format == document.FormatPDF:
		ref, err := s.extractor.Upload(ctx, data, "application/pdf")
		if err != nil {
			return extract.Input{}, err
		}

		return extract.Input{File: ref}, nil
	case err != nil:
		return extract.Input{}, err
	}

	return extract.Input{Pages: pages}, nil
}

func (s *Service) replaceFlat(ctx context.Context, sc scope, p report.Payload, summary *report.Summary) error {
	tables := []struct {
		table report.Table
		rows  []Record
	}{
		{report.TableResources, sc.resources(p.Resources)},
		{report.TableExpenses, sc.expenses(p.Expenses)},
		{report.TableTreasury, sc.treasury(p.Treasury)},
		{report.TableAccounts, sc.accounts(p.Accounts)},
		{report.TableBalanceSheet, sc.balanceSheet(p.BalanceSheet)},
	}

	for _, t := range tables {
		if _, err := s.repo.Delete(ctx, t.table, Filter{"document_id": sc.documentID}); err != nil {
			return fmt.Errorf("clearing %s: %w", t.table, err)
		}

		if len(t.rows) == 0 {
			summary.Counts[t.table] = 0
			continue
		}

		res, err := s.repo.Insert(ctx, t.table, t.rows)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", t.table, err)
		}

		summary.Counts[t.table] = res.Count
	}

	s.event(ctx, "flat_tables_written", map[string]any{"document_id": sc.documentID})

	return nil
}

func (s *Service) upsert(ctx context.Context, table report.Table, rows []Record, key Key, summary *report.Summary) error {
	if len(rows) == 0 {
		return nil
	}

	res, err := s.repo.Upsert(ctx, table, rows, key)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", table, err)
	}

	if res.Degraded {
		summary.Warn(fmt.Sprintf("upsert on %s degraded to insert", table))
	}

	summary.Counts[table] += res.Count

	return nil
}

func (s *Service) writeJurisdictions(ctx context.Context, sc scope, rows []report.Jurisdiction, summary *report.Summary) (map[string]uuid.UUID, error) {
	if err := s.upsert(ctx, report.TableJurisdictions, sc.jurisdictions(rows), KeyJurisdiction, summary); err != nil {
		return nil, err
	}

	fetched, err := s.repo.Fetch(ctx, report.TableJurisdictions, Filter{"document_id": sc.documentID})
	if err != nil {
		return nil, fmt.Errorf("fetching jurisdictions: %w", err)
	}

	ids := make(map[string]uuid.UUID, len(fetched))

	for _, r := range fetched {
		if id, ok := recordUUID(r, "id"); ok {
			ids[recordString(r, "code")] = id
		}
	}

	s.event(ctx, "jurisdictions_written", map[string]any{"document_id": sc.documentID, "count": len(ids)})

	return ids, nil
}

func (s *Service) writePrograms(ctx context.Context, sc scope, p report.Payload, jurisdictionIDs map[string]uuid.UUID, summary *report.Summary) ([]resolve.Known, error) {
	programs := withGoalFlags(p.Programs, p.Goals)

	rows, warnings := sc.programs(programs, jurisdictionIDs)
	summary.Warn(warnings...)

	if err := s.upsert(ctx, report.TablePrograms, rows, KeyProgram, summary); err != nil {
		return nil, err
	}

	known, err := s.fetchPrograms(ctx, jurisdictionIDs)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(jurisdictionIDs))
	for code := range jurisdictionIDs {
		present[code] = true
	}

	missing := resolve.MissingPrograms(p.Goals, programsOf(known), present)
	if len(missing) > 0 {
		rows, warnings := sc.programs(missing, jurisdictionIDs)
		summary.Warn(warnings...)
		summary.Warn(fmt.Sprintf("%d programs created from goal headers", len(rows)))

		if err := s.upsert(ctx, report.TablePrograms, rows, KeyProgram, summary); err != nil {
			return nil, err
		}

		if known, err = s.fetchPrograms(ctx, jurisdictionIDs); err != nil {
			return nil, err
		}
	}

	s.event(ctx, "programs_written", map[string]any{
		"document_id": sc.documentID,
		"count":       len(known),
		"synthesized": len(missing),
	})

	return known, nil
}

func (s *Service) fetchPrograms(ctx context.Context, jurisdictionIDs map[string]uuid.UUID) ([]resolve.Known, error) {
	if len(jurisdictionIDs) == 0 {
		return nil, nil
	}

	codes := make(map[uuid.UUID]string, len(jurisdictionIDs))
	ids := make([]uuid.UUID, 0, len(jurisdictionIDs))

	for code, id := range jurisdictionIDs {
		codes[id] = code
		ids = append(ids, id)
	}

	fetched, err := s.repo.Fetch(ctx, report.TablePrograms, Filter{"jurisdiction_id": ids})
	if err != nil {
		return nil, fmt.Errorf("fetching programs: %w", err)
	}

	known := make([]resolve.Known, 0, len(fetched))

	for _, r := range fetched {
		id, ok := recordUUID(r, "id")
		if !ok {
			continue
		}

		juri, _ := recordUUID(r, "jurisdiction_id")

		known = append(known, resolve.Known{
			ID:               id,
			JurisdictionCode: codes[juri],
			Code:             recordString(r, "code"),
			Name:             recordString(r, "name"),
		})
	}

	return known, nil
}

func (s *Service) writeGoals(ctx context.Context, sc scope, goals []report.Goal, known []resolve.Known, summary *report.Summary) error {
	resolved, unresolved := resolve.NewIndex(known).Resolve(goals)

	rows, warnings := sc.goals(resolved)
	summary.Warn(warnings...)

	if err := s.upsert(ctx, report.TableGoals, rows, KeyGoal, summary); err != nil {
		return err
	}

	summary.UnresolvedGoals = len(unresolved)

	if len(unresolved) > 0 {
		summary.Warn(fmt.Sprintf("%d goals could not be linked to a program", len(unresolved)))

		if s.cfg.StagingEnabled {
			if _, err := s.repo.Delete(ctx, report.TableGoalStaging, Filter{"document_id": sc.documentID}); err != nil {
				return fmt.Errorf("clearing staged goals: %w", err)
			}

			res, err := s.repo.Insert(ctx, report.TableGoalStaging, sc.staging(unresolved))
			if err != nil {
				return fmt.Errorf("staging goals: %w", err)
			}

			summary.Counts[report.TableGoalStaging] = res.Count
		}
	}

	s.event(ctx, "goals_written", map[string]any{
		"document_id": sc.documentID,
		"resolved":    len(resolved),
		"unresolved":  len(unresolved),
	})

	return nil
}

// withGoalFlags marks programs that have goals under their header.
func withGoalFlags(programs []report.Program, goals []report.Goal) []report.Program {
	if len(goals) == 0 {
		return programs
	}

	pairs := make(map[string]bool, len(goals))
	names := make(map[string]bool, len(goals))

	for _, g := range goals {
		if g.ProgramCode != "" {
			pairs[g.JurisdictionCode+"::"+g.ProgramCode] = true
		}

		if g.ProgramName != "" {
			names[g.JurisdictionCode+"::"+resolve.Normalize(g.ProgramName)] = true
		}
	}

	out := make([]report.Program, len(programs))

	for i, p := range programs {
		code := ""
		if p.Code != nil {
			code = *p.Code
		}

		if (code != "" && pairs[p.JurisdictionCode+"::"+code]) || names[p.JurisdictionCode+"::"+resolve.Normalize(p.Name)] {
			p.HasGoals = true
		}

		out[i] = p
	}

	return out
}

func programsOf(known []resolve.Known) []report.Program {
	out := make([]report.Program, 0, len(known))

	for _, k := range known {
		p := report.Program{JurisdictionCode: k.JurisdictionCode, Name: k.Name}
		if k.Code != "" {
			p.Code = report.Ptr(k.Code)
		}

		out = append(out, p)
	}

	return out
}
