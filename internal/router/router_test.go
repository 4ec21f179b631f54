package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/router"
)

func TestRouter_Route(t *testing.T) {
	type testCase struct {
		name  string
		pages []pdftext.Page
		want  router.Selection
	}

	tests := []testCase{
		{
			name: "Program and goal pages",
			pages: []pdftext.Page{
				{Number: 1, Text: "Movimientos de Tesorería"},
				{Number: 2, Text: "GASTOS POR PROGRAMA\nJurisdicción 1110101000"},
				{Number: 3, Text: "Evolución de las principales metas"},
			},
			want: router.Selection{ProgramPages: []int{2}, GoalPages: []int{3}},
		},
		{
			name: "Overlapping page",
			pages: []pdftext.Page{
				{Number: 4, Text: "Principales metas por programa y jurisdicción"},
			},
			want: router.Selection{ProgramPages: []int{4}, GoalPages: []int{4}},
		},
		{
			name: "Single hit does not qualify",
			pages: []pdftext.Page{
				{Number: 1, Text: "Programa de obras"},
				{Number: 2, Text: "Metas"},
			},
			want: router.Selection{UsedFallback: true},
		},
		{
			name: "No pages",
			want: router.Selection{UsedFallback: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, router.New().Route(tt.pages))
		})
	}
}

func TestRouter_Route_MinHits(t *testing.T) {
	r := &router.Router{MinHits: 1}

	got := r.Route([]pdftext.Page{{Number: 1, Text: "Programa de obras"}})

	assert.Equal(t, []int{1}, got.ProgramPages)
	assert.False(t, got.UsedFallback)
}

func TestSection(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: "uno"},
		{Number: 2, Text: "dos"},
		{Number: 3, Text: "tres"},
	}

	assert.Equal(t, "[PAGINA 1]\nuno\n\n[PAGINA 3]\ntres", router.Section(pages, []int{3, 1}))
	assert.Empty(t, router.Section(pages, nil))
}
