// Package report holds the rows extracted from a municipal financial report
// and the summary attached to a document once it has been processed.
package report

// Status represents the processing state of an uploaded document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Table names one of the persisted tables.
type Table string

const (
	TableDocuments     Table = "documents"
	TableResources     Table = "resources"
	TableExpenses      Table = "expenses"
	TableJurisdictions Table = "jurisdictions"
	TablePrograms      Table = "programs"
	TableGoals         Table = "goals"
	TableTreasury      Table = "treasury_movements"
	TableAccounts      Table = "accounts"
	TableBalanceSheet  Table = "balance_sheet_items"
	TableGoalStaging   Table = "goal_staging"
)

// Payload is the full set of rows extracted from one document.
type Payload struct {
	Resources     []Resource
	Expenses      []Expense
	Jurisdictions []Jurisdiction
	Programs      []Program
	Goals         []Goal
	Treasury      []TreasuryMovement
	Accounts      []Account
	BalanceSheet  []BalanceSheetItem
	Warnings      []string
}

// Merge appends every row set of other to p.
func (p *Payload) Merge(other Payload) {
	p.Resources = append(p.Resources, other.Resources...)
	p.Expenses = append(p.Expenses, other.Expenses...)
	p.Jurisdictions = append(p.Jurisdictions, other.Jurisdictions...)
	p.Programs = append(p.Programs, other.Programs...)
	p.Goals = append(p.Goals, other.Goals...)
	p.Treasury = append(p.Treasury, other.Treasury...)
	p.Accounts = append(p.Accounts, other.Accounts...)
	p.BalanceSheet = append(p.BalanceSheet, other.BalanceSheet...)
	p.Warnings = append(p.Warnings, other.Warnings...)
}

// Summary is attached to the document when a run finishes.
type Summary struct {
	Strategy        string        `json:"strategy"`
	Counts          map[Table]int `json:"counts"`
	UnresolvedGoals int           `json:"unresolved_goals"`
	Warnings        []string      `json:"warnings"`
	Error           string        `json:"error,omitempty"`
}

// NewSummary returns an empty summary for the given strategy.
func NewSummary(strategy string) *Summary {
	return &Summary{
		Strategy: strategy,
		Counts:   make(map[Table]int),
		Warnings: []string{},
	}
}

// Warn appends formatted warnings to the summary.
func (s *Summary) Warn(warnings ...string) {
	s.Warnings = append(s.Warnings, warnings...)
}
