package report

// Budget separates budgetary from extra-budgetary rows.
type Budget string

const (
	Budgetary      Budget = "Presupuestario"
	ExtraBudgetary Budget = "Extrapresupuestario"
)

// Jurisdiction groups programs. Code is the ten digit RAFAM code or a
// synthetic code for special groups such as central activities.
type Jurisdiction struct {
	Code  string
	Name  *string
	Group string
}

// Program is a budget program of a jurisdiction with its five execution stages.
type Program struct {
	JurisdictionCode string
	Code             *string
	Name             string
	Budgeted         *float64
	Preventive       *float64
	Committed        *float64
	Accrued          *float64
	Paid             *float64
	HasGoals         bool
}

// Goal is a physical goal of a program. The program is referenced by its
// natural keys and resolved to an id at persistence time.
type Goal struct {
	JurisdictionCode string
	ProgramCode      string
	ProgramName      string
	Code             string
	Name             string
	Unit             *string
	Annual           *float64
	Partial          *float64
	Executed         *float64
}

// Resource is a row of the resources evolution table.
type Resource struct {
	Type      Budget
	Name      string
	Category  *string
	Current   *float64
	Accrued   *float64
	Collected *float64
}

// Expense is a row of the expenses by object table.
type Expense struct {
	Category   Budget
	Object     string
	Current    *float64
	Preventive *float64
	Committed  *float64
	Accrued    *float64
	Paid       *float64
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
