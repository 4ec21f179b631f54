package workbook_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/workbook"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true

	for _, name := range []string{workbook.SheetBudget, workbook.SheetPrograms, workbook.SheetTreasury, workbook.SheetGoals} {
		rows, ok := sheets[name]
		if !ok {
			continue
		}

		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}

		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf
}

func fullWorkbook() map[string][][]any {
	return map[string][][]any{
		workbook.SheetBudget: {
			{"Evolución de los Recursos"},
			{"", "Vigente", "Devengado", "Percibido"},
			{"1. Presupuestarios", "10.000,00", "8.000,00", "7.500,00"},
			{"Ingresos corrientes", "6.000,00", "5.000,00", "4.800,00"},
			{"De libre disponibilidad", "7.000,00", "5.500,00", "5.000,00"},
			{"2. Extrapresupuestarios", "750,00", "750,00", "750,00"},
			{"Fondos de terceros", "750,00", "750,00", "700,00"},
			{"Total General (1+2)", "10.750,00", "8.750,00", "8.200,00"},
			{"Evolución de Gastos por Objeto"},
			{"1. Presupuestarios"},
			{"Gastos en personal", "5.000,00", "4.500,00", "4.000,00", "3.500,00", "3.000,00"},
			{"Bienes de consumo", "100,00", "90,00"},
		},
		workbook.SheetPrograms: {
			{"Departamento Ejecutivo"},
			{"1110101000 - 01 Administración General", "3.000,00", "2.800,00", "2.600,00", "2.400,00", "2.200,00"},
			{"1110102000 02 Salud", "100,00"},
		},
		workbook.SheetTreasury: {
			{"Período Del 01/01/2024 al 31/03/2024", "", "Estado de Situación Patrimonial\n110000000 Activo Corriente\n210000000 Pasivo Corriente\n311000000 Capital Fiscal", "1.500,00\n400,00\n1.100,00"},
			{"Movimientos de Tesorería"},
			{"Saldo Inicial:", "100,00"},
			{"Ingresos del Periodo:", "50,00"},
			{"Ingresos de Ajustes Contables:", "0,00"},
			{"Gastos del periodo:", "30,00"},
			{"Egresos de Ajustes Contables:", "0,00"},
			{"Saldo Final:", "120,00"},
			{"Demostración del Saldo 111100001 Banco Provincia 111100002 Fondos de Terceros", "80,00"},
			{"", "40,00"},
		},
		workbook.SheetGoals: {
			{"1110102000 02 Salud"},
			{"Meta", "Programado", "Parcial", "Ejecutado"},
			{"1 Consultas médicas (Consultas)", "1.200", "300", "280", "20"},
			{"2 Campañas (Campañas)", "12"},
		},
	}
}

func TestRead(t *testing.T) {
	p, err := workbook.Read(buildWorkbook(t, fullWorkbook()))
	require.NoError(t, err)

	require.Len(t, p.Resources, 3)
	assert.Equal(t, "Ingresos corrientes", p.Resources[0].Name)
	assert.Equal(t, report.Budgetary, p.Resources[0].Type)
	require.NotNil(t, p.Resources[1].Category)
	assert.Equal(t, "De libre disponibilidad", *p.Resources[1].Category)
	assert.Equal(t, report.ExtraBudgetary, p.Resources[2].Type)
	assert.InDelta(t, 700.0, *p.Resources[2].Collected, 1e-9)

	require.Len(t, p.Expenses, 1)
	assert.Equal(t, "Gastos en personal", p.Expenses[0].Object)
	assert.InDelta(t, 3000.0, *p.Expenses[0].Paid, 1e-9)

	require.Len(t, p.Jurisdictions, 1)
	assert.Equal(t, "1110101000", p.Jurisdictions[0].Code)

	require.Len(t, p.Programs, 2)
	assert.Equal(t, "Administración General", p.Programs[0].Name)
	assert.False(t, p.Programs[0].HasGoals)
	assert.Equal(t, "1110102000", p.Programs[1].JurisdictionCode)
	assert.True(t, p.Programs[1].HasGoals)
	assert.Nil(t, p.Programs[1].Budgeted)

	require.Len(t, p.Treasury, 6)
	assert.Equal(t, report.PeriodExpense, p.Treasury[3].Kind)
	require.NotNil(t, p.Treasury[0].Period)
	assert.Equal(t, "Del 01/01/2024 al 31/03/2024", *p.Treasury[0].Period)
	assert.InDelta(t, 120.0, report.DerivedClosingBalance(p.Treasury), 1e-9)

	require.Len(t, p.Accounts, 2)
	assert.Equal(t, "111100001", *p.Accounts[0].Code)
	assert.Equal(t, "Banco Provincia", p.Accounts[0].Name)
	assert.Equal(t, report.AccountBank, p.Accounts[0].Type)
	assert.InDelta(t, 40.0, p.Accounts[1].Amount, 1e-9)

	require.Len(t, p.BalanceSheet, 3)
	assert.Equal(t, report.BalanceAsset, p.BalanceSheet[0].Kind)
	assert.Equal(t, report.BalanceLiabilityAndEquity, p.BalanceSheet[2].Kind)
	assert.InDelta(t, 1100.0, p.BalanceSheet[2].Balance, 1e-9)

	require.Len(t, p.Goals, 1)
	g := p.Goals[0]
	assert.Equal(t, "Consultas médicas", g.Name)
	assert.Equal(t, "Consultas", *g.Unit)
	assert.InDelta(t, 1200.0, *g.Annual, 1e-9)
	assert.InDelta(t, 280.0, *g.Executed, 1e-9)

	assert.Equal(t, []string{
		"incomplete program row: 1110102000 02 Salud",
		"incomplete goal row: 2 Campañas (Campañas)",
	}, p.Warnings)
}

func TestRead_MissingSheet(t *testing.T) {
	sheets := fullWorkbook()
	delete(sheets, workbook.SheetGoals)

	_, err := workbook.Read(buildWorkbook(t, sheets))
	require.Error(t, err)
	assert.True(t, errors.Is(err, workbook.ErrMissingSheet))
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := workbook.Read(bytes.NewReader([]byte("%PDF-1.4")))
	require.Error(t, err)
}

func TestPages(t *testing.T) {
	pages, err := workbook.Pages(buildWorkbook(t, map[string][][]any{
		workbook.SheetBudget:   {{"Evolución de los recursos"}, {"Ingresos corrientes", 100, "  con\nsalto "}},
		workbook.SheetPrograms: {{"Gastos por programa"}},
	}))
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "### Table 1\nEvolución de los recursos\nIngresos corrientes | 100 | con salto", pages[0].Text)
	assert.Equal(t, "### Table 2\nGastos por programa", pages[1].Text)
}
