// Package router picks the pages of a report that hold the program and goal
// tables, so model calls only receive the text they need.
package router

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

// DefaultMinHits is the number of keyword hits a page needs to qualify.
const DefaultMinHits = 2

var (
	programKeywords = []string{"jurisdic", "programa", "presupuesto"}
	goalKeywords    = []string{"metas", "evolucion", "evoluci", "principales"}
)

// Selection lists the qualifying page numbers per section. The lists may
// overlap. UsedFallback is set when neither list matched anything.
type Selection struct {
	ProgramPages []int
	GoalPages    []int
	UsedFallback bool
}

// Router scores pages against keyword sets.
type Router struct {
	MinHits int
}

func New() *Router {
	return &Router{MinHits: DefaultMinHits}
}

// Route classifies pages. False positives are acceptable; an empty
// selection tells the caller to send the whole document instead.
func (r *Router) Route(pages []pdftext.Page) Selection {
	minHits := r.MinHits
	if minHits <= 0 {
		minHits = DefaultMinHits
	}

	var sel Selection

	for _, p := range pages {
		key := textkey.Key(p.Text)

		if score(key, programKeywords) >= minHits {
			sel.ProgramPages = append(sel.ProgramPages, p.Number)
		}

		if score(key, goalKeywords) >= minHits {
			sel.GoalPages = append(sel.GoalPages, p.Number)
		}
	}

	sel.UsedFallback = len(sel.ProgramPages) == 0 && len(sel.GoalPages) == 0

	return sel
}

func score(key string, keywords []string) int {
	hits := 0

	for _, k := range keywords {
		if strings.Contains(key, k) {
			hits++
		}
	}

	return hits
}

// Section renders the selected pages as "[PAGINA n]" blocks, in page order.
func Section(pages []pdftext.Page, numbers []int) string {
	var b strings.Builder

	for _, p := range pages {
		if !slices.Contains(numbers, p.Number) {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}

		fmt.Fprintf(&b, "[PAGINA %d]\n%s", p.Number, p.Text)
	}

	return b.String()
}
