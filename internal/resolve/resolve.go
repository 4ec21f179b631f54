// Package resolve links goals to the programs persisted for a document.
package resolve

import (
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

// Known is a persisted program.
type Known struct {
	ID               uuid.UUID
	JurisdictionCode string
	Code             string
	Name             string
}

// Resolved is a goal linked to its program.
type Resolved struct {
	Goal      report.Goal
	ProgramID uuid.UUID
}

// Index maps program keys to ids. Keys that point to more than one program
// are ambiguous and never match.
type Index struct {
	ids       map[string]uuid.UUID
	ambiguous map[string]bool
}

// Normalize lower-cases a name and collapses its whitespace.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func pairKey(juri, code string) string { return juri + "::" + code }

func nameKey(name string) string { return "name::" + Normalize(name) }

func juriNameKey(juri, name string) string { return juri + "::name::" + Normalize(name) }

func NewIndex(programs []Known) *Index {
	idx := &Index{
		ids:       make(map[string]uuid.UUID, len(programs)*4),
		ambiguous: make(map[string]bool),
	}

	for _, p := range programs {
		if p.ID == uuid.Nil {
			continue
		}

		juri := strings.TrimSpace(p.JurisdictionCode)
		code := strings.TrimSpace(p.Code)
		name := strings.TrimSpace(p.Name)

		if code != "" {
			idx.add(code, p.ID)

			if juri != "" {
				idx.add(pairKey(juri, code), p.ID)
			}
		}

		if name != "" {
			idx.add(nameKey(name), p.ID)

			if juri != "" {
				idx.add(juriNameKey(juri, name), p.ID)
			}
		}
	}

	return idx
}

func (idx *Index) add(key string, id uuid.UUID) {
	if prev, ok := idx.ids[key]; ok && prev != id {
		idx.ambiguous[key] = true
		return
	}

	idx.ids[key] = id
}

func (idx *Index) get(key string) (uuid.UUID, bool) {
	if idx.ambiguous[key] {
		return uuid.Nil, false
	}

	id, ok := idx.ids[key]

	return id, ok
}

// Lookup resolves a program by (jurisdiction, code), then code, then
// (jurisdiction, name), then name.
func (idx *Index) Lookup(juri, code, name string) (uuid.UUID, bool) {
	juri = strings.TrimSpace(juri)
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)

	var keys []string

	if code != "" {
		if juri != "" {
			keys = append(keys, pairKey(juri, code))
		}

		keys = append(keys, code)
	}

	if name != "" {
		if juri != "" {
			keys = append(keys, juriNameKey(juri, name))
		}

		keys = append(keys, nameKey(name))
	}

	for _, k := range keys {
		if id, ok := idx.get(k); ok {
			return id, true
		}
	}

	return uuid.Nil, false
}

// Resolve splits goals into those linked to a program and those that are
// not. No goal is dropped.
func (idx *Index) Resolve(goals []report.Goal) ([]Resolved, []report.Goal) {
	var (
		resolved   []Resolved
		unresolved []report.Goal
	)

	for _, g := range goals {
		id, ok := idx.Lookup(g.JurisdictionCode, g.ProgramCode, g.ProgramName)
		if !ok {
			unresolved = append(unresolved, g)
			continue
		}

		resolved = append(resolved, Resolved{Goal: g, ProgramID: id})
	}

	return resolved, unresolved
}

// MissingPrograms builds minimal programs from goal headers that have no
// matching program. Only jurisdictions in known are considered, and each
// (jurisdiction, code) pair is returned once.
func MissingPrograms(goals []report.Goal, programs []report.Program, known map[string]bool) []report.Program {
	have := make(map[string]bool, len(programs))

	for _, p := range programs {
		if p.Code != nil {
			have[pairKey(p.JurisdictionCode, *p.Code)] = true
		}
	}

	var missing []report.Program

	for _, g := range goals {
		juri := strings.TrimSpace(g.JurisdictionCode)
		code := strings.TrimSpace(g.ProgramCode)

		if juri == "" || code == "" || !known[juri] {
			continue
		}

		key := pairKey(juri, code)
		if have[key] {
			continue
		}

		have[key] = true

		name := strings.TrimSpace(g.ProgramName)
		if name == "" {
			name = "Programa " + code
		}

		missing = append(missing, report.Program{
			JurisdictionCode: juri,
			Code:             report.Ptr(code),
			Name:             name,
			HasGoals:         true,
		})
	}

	return missing
}
