package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

func TestDerivedClosingBalance(t *testing.T) {
	movements := []report.TreasuryMovement{
		{Kind: report.OpeningBalance, Amount: 100},
		{Kind: report.PeriodIncome, Amount: 50},
		{Kind: report.PeriodExpense, Amount: 30},
		{Kind: report.ClosingBalance, Amount: 999},
	}

	assert.InDelta(t, 120.0, report.DerivedClosingBalance(movements), 1e-9)
}

func TestDerivedClosingBalance_Adjustments(t *testing.T) {
	movements := []report.TreasuryMovement{
		{Kind: report.OpeningBalance, Amount: 1000},
		{Kind: report.PeriodIncome, Amount: 500},
		{Kind: report.IncomeAdjustments, Amount: 20},
		{Kind: report.PeriodExpense, Amount: 300},
		{Kind: report.ExpenseAdjustments, Amount: 10},
	}

	assert.InDelta(t, 1210.0, report.DerivedClosingBalance(movements), 1e-9)
}

func TestMovementKindFromLabel(t *testing.T) {
	type testCase struct {
		label  string
		want   report.MovementKind
		wantOK bool
	}

	tests := []testCase{
		{label: "Saldo Inicial", want: report.OpeningBalance, wantOK: true},
		{label: "Ingresos del período", want: report.PeriodIncome, wantOK: true},
		{label: "INGRESOS DE AJUSTES CONTABLES", want: report.IncomeAdjustments, wantOK: true},
		{label: "Gastos del Periodo", want: report.PeriodExpense, wantOK: true},
		{label: "Egresos de Ajustes Contables", want: report.ExpenseAdjustments, wantOK: true},
		{label: "Saldo final", want: report.ClosingBalance, wantOK: true},
		{label: "Banco Nación", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := report.MovementKindFromLabel(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMovementKind_Summary(t *testing.T) {
	kind, ok := report.IncomeAdjustments.Summary()
	assert.True(t, ok)
	assert.Equal(t, report.SummaryIncome, kind)

	_, ok = report.ClosingBalance.Summary()
	assert.False(t, ok)
}

func TestInferBalanceKind(t *testing.T) {
	type testCase struct {
		name     string
		code     string
		itemName string
		want     report.BalanceKind
		wantLow  bool
	}

	tests := []testCase{
		{name: "Documented asset", code: "110000000", want: report.BalanceAsset},
		{name: "Documented equity", code: "311000000", want: report.BalanceLiabilityAndEquity},
		{name: "Undocumented code by digit", code: "130000000", want: report.BalanceAsset, wantLow: true},
		{name: "Keyword fallback", itemName: "Pasivo Corriente", want: report.BalanceLiabilityAndEquity, wantLow: true},
		{name: "Unknown", code: "990000000", itemName: "Otros", wantLow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, low := report.InferBalanceKind(tt.code, tt.itemName)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLow, low)
		})
	}
}

func TestAccountTypeFromName(t *testing.T) {
	assert.Equal(t, report.AccountBank, report.AccountTypeFromName("Banco Provincia Cta Cte"))
	assert.Equal(t, report.AccountFunds, report.AccountTypeFromName("Fondos de Terceros"))
	assert.Equal(t, report.AccountResources, report.AccountTypeFromName("Recursos Afectados"))
	assert.Equal(t, report.AccountCash, report.AccountTypeFromName("CAJA"))
	assert.Equal(t, report.AccountOther, report.AccountTypeFromName("Plazo fijo"))
}

func TestBalanceSheetCode(t *testing.T) {
	code, ok := report.BalanceSheetCode("ACTIVO  CORRIENTE")
	assert.True(t, ok)
	assert.Equal(t, "110000000", code)

	code, ok = report.BalanceSheetCode("Resultados afectados a construcción de bienes de dominio público")
	assert.True(t, ok)
	assert.Equal(t, "312300000", code)

	_, ok = report.BalanceSheetCode("Banco Provincia")
	assert.False(t, ok)
}
