package resolve_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/resolve"
)

func TestIndex_Lookup(t *testing.T) {
	health := uuid.New()
	admin := uuid.New()
	hcd := uuid.New()

	idx := resolve.NewIndex([]resolve.Known{
		{ID: admin, JurisdictionCode: "1110101000", Code: "01", Name: "Administración General"},
		{ID: health, JurisdictionCode: "1110102000", Code: "02", Name: "Salud  Pública"},
		{ID: hcd, JurisdictionCode: "ACTCENT_HCD", Code: "01", Name: "Concejo Deliberante"},
	})

	type args struct {
		juri string
		code string
		name string
	}

	type testCase struct {
		name   string
		args   args
		want   uuid.UUID
		wantOK bool
	}

	tests := []testCase{
		{name: "Pair", args: args{juri: "1110101000", code: "01"}, want: admin, wantOK: true},
		{name: "PairOtherJurisdiction", args: args{juri: "ACTCENT_HCD", code: "01"}, want: hcd, wantOK: true},
		{name: "UniqueCode", args: args{code: "02"}, want: health, wantOK: true},
		{name: "AmbiguousCode", args: args{code: "01"}},
		{name: "WrongPairFallsBackToCode", args: args{juri: "9999999999", code: "02"}, want: health, wantOK: true},
		{name: "JurisdictionAndName", args: args{juri: "1110102000", name: "salud pública"}, want: health, wantOK: true},
		{name: "NameOnly", args: args{name: "CONCEJO   deliberante"}, want: hcd, wantOK: true},
		{name: "Unknown", args: args{juri: "1110101000", code: "77", name: "Obras"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Lookup(tt.args.juri, tt.args.code, tt.args.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_Resolve(t *testing.T) {
	id := uuid.New()
	idx := resolve.NewIndex([]resolve.Known{{ID: id, JurisdictionCode: "1110101000", Code: "01", Name: "Salud"}})

	goals := []report.Goal{
		{JurisdictionCode: "1110101000", ProgramCode: "01", Name: "Consultas"},
		{JurisdictionCode: "1110101000", ProgramCode: "05", Name: "Bacheo"},
		{ProgramName: "salud", Name: "Vacunas"},
	}

	resolved, unresolved := idx.Resolve(goals)

	require.Len(t, resolved, 2)
	assert.Equal(t, id, resolved[0].ProgramID)
	assert.Equal(t, "Vacunas", resolved[1].Goal.Name)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Bacheo", unresolved[0].Name)
}

func TestMissingPrograms(t *testing.T) {
	programs := []report.Program{
		{JurisdictionCode: "1110101000", Code: report.Ptr("01"), Name: "Salud"},
	}

	goals := []report.Goal{
		{JurisdictionCode: "1110101000", ProgramCode: "01", ProgramName: "Salud"},
		{JurisdictionCode: "1110101000", ProgramCode: "02", ProgramName: "Obras"},
		{JurisdictionCode: "1110101000", ProgramCode: "02", ProgramName: "Obras"},
		{JurisdictionCode: "1110101000", ProgramCode: "03"},
		{JurisdictionCode: "2220000000", ProgramCode: "01", ProgramName: "Desconocido"},
		{ProgramName: "Sin código"},
	}

	known := map[string]bool{"1110101000": true}

	got := resolve.MissingPrograms(goals, programs, known)

	require.Len(t, got, 2)
	assert.Equal(t, "02", *got[0].Code)
	assert.Equal(t, "Obras", got[0].Name)
	assert.True(t, got[0].HasGoals)
	assert.Equal(t, "Programa 03", got[1].Name)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "salud pública", resolve.Normalize("  SALUD \t Pública "))
}
