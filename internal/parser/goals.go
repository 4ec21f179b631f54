package parser

import (
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

var goalsSection = section{
	start: containsMarker("evolucion de las principales metas"),
	end: []string{
		"r.a.f.a.m.",
		"hoja:",
		"estado de situacion patrimonial",
		"movimientos de tesoreria",
	},
}

var (
	// goalProgramHeader matches "{10 digit jurisdiction} {program code} {program name}".
	goalProgramHeader = regexp.MustCompile(`^(\d{10})\s+(\d+)\s+(.+)$`)
	goalLine          = regexp.MustCompile(`^(\d+)\s+(.+)$`)
	goalUnit          = regexp.MustCompile(`\(([^)]*)\)`)
	goalNumber        = regexp.MustCompile(`^-?(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d+)?$`)
)

// goalColumns is the number of numeric columns kept: annual, partial and
// executed. A fourth "difference" column is discarded.
const goalColumns = 3

type goalsParser struct{}

func (goalsParser) Parse(text string) Result {
	var (
		juri, progCode, progName string
		pending                  *report.Goal
		pendingNums              []float64
		pendingLine              line
		dropped                  []Warning
	)

	dropPending := func() {
		if pending == nil {
			return
		}

		dropped = append(dropped, Warning{
			Kind:    KindGoals,
			Line:    pendingLine.Number,
			Text:    pendingLine.Text,
			Message: "goal without numeric columns dropped",
		})
		pending = nil
		pendingNums = nil
	}

	rows, warnings := collect(KindGoals, goalsSection.lines(text), func(l line) lineResult[report.Goal] {
		if strings.Contains(l.Key, "programado") && strings.Contains(l.Key, "diferencia") {
			return skip[report.Goal]()
		}

		if _, ok := programGroup(l.Text); ok {
			return skip[report.Goal]()
		}

		if m := goalProgramHeader.FindStringSubmatch(l.Text); m != nil {
			dropPending()

			juri, progCode, progName = m[1], m[2], textkey.Name(m[3])

			return skip[report.Goal]()
		}

		if juri == "" {
			return skip[report.Goal]()
		}

		name, unit, nums := splitGoalText(l.Text)

		m := goalLine.FindStringSubmatch(l.Text)
		if m != nil && (pending == nil || name != "") {
			dropPending()

			name, unit, nums = splitGoalText(m[2])
			goal := report.Goal{
				JurisdictionCode: juri,
				ProgramCode:      progCode,
				ProgramName:      progName,
				Code:             m[1],
				Name:             name,
				Unit:             unit,
			}

			if len(nums) >= goalColumns {
				return emit(withGoalColumns(goal, nums))
			}

			// Wrapped cell: the remaining columns come on the next line.
			pending, pendingNums, pendingLine = &goal, nums, l

			return skip[report.Goal]()
		}

		if pending == nil {
			return skip[report.Goal]()
		}

		goal := *pending
		nums = append(pendingNums, nums...)

		if name != "" {
			goal.Name = textkey.Name(goal.Name + " " + name)
		}

		if unit != nil {
			goal.Unit = unit
		}

		// Name wrapped over several lines: keep waiting for the numbers until
		// the next goal or program header.
		if len(nums) < goalColumns {
			*pending, pendingNums = goal, nums
			return skip[report.Goal]()
		}

		pending, pendingNums = nil, nil

		return emit(withGoalColumns(goal, nums))
	})

	dropPending()

	warnings = append(warnings, dropped...)

	return Result{Rows: report.Payload{Goals: rows}, Warnings: warnings}
}

// splitGoalText separates "Name (Unit) 1.000 500 450 50" into its name,
// unit and trailing numbers.
func splitGoalText(text string) (string, *string, []float64) {
	var unit *string

	if locs := goalUnit.FindAllStringSubmatchIndex(text, -1); len(locs) > 0 {
		loc := locs[len(locs)-1]
		unit = report.Ptr(textkey.Name(text[loc[2]:loc[3]]))
		text = text[:loc[0]] + " " + text[loc[1]:]
	}

	fields := strings.Fields(text)

	var nums []float64

	cut := len(fields)

	for cut > 0 && goalNumber.MatchString(fields[cut-1]) {
		cut--
	}

	for _, f := range fields[cut:] {
		v, err := parseGoalNumber(f)
		if err != nil {
			continue
		}

		nums = append(nums, v)
	}

	return strings.Join(fields[:cut], " "), unit, nums
}

func parseGoalNumber(s string) (float64, error) {
	if strings.Contains(s, ",") {
		return amount.Parse(s)
	}

	return amount.Parse(strings.ReplaceAll(s, ".", ""))
}

func withGoalColumns(g report.Goal, nums []float64) report.Goal {
	g.Annual = report.Ptr(nums[0])
	g.Partial = report.Ptr(nums[1])
	g.Executed = report.Ptr(nums[2])

	return g
}
