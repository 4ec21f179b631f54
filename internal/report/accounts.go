package report

import (
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

// AccountType classifies treasury accounts by name.
type AccountType string

const (
	AccountBank      AccountType = "BANCO"
	AccountFunds     AccountType = "FONDOS"
	AccountResources AccountType = "RECURSOS"
	AccountCash      AccountType = "CAJA"
	AccountOther     AccountType = "OTRO"
)

// Account is a row of the balance demonstration (treasury accounts).
type Account struct {
	Code   *string
	Name   string
	Type   AccountType
	Amount float64
}

// AccountTypeFromName derives the account type from name keywords.
func AccountTypeFromName(name string) AccountType {
	key := textkey.Key(name)

	switch {
	case strings.Contains(key, "banco"):
		return AccountBank
	case strings.Contains(key, "fondos"):
		return AccountFunds
	case textkey.ContainsAny(key, "recursos", "afectados"):
		return AccountResources
	case strings.Contains(key, "caja"):
		return AccountCash
	}

	return AccountOther
}

// BalanceKind is the side of the balance sheet an item belongs to.
type BalanceKind string

const (
	BalanceAsset              BalanceKind = "ACTIVO"
	BalanceLiabilityAndEquity BalanceKind = "PASIVO_PATRIMONIO"
)

// BalanceSheetItem is a row of the balance sheet (situación patrimonial).
type BalanceSheetItem struct {
	Code          string
	Name          string
	Kind          BalanceKind
	Balance       float64
	LowConfidence bool
}

// BalanceSheetLine is a documented balance sheet line. Aliases are other
// spellings found in reports.
type BalanceSheetLine struct {
	Code    string
	Name    string
	Aliases []string
}

// BalanceSheetLines lists the documented balance sheet lines in report order.
var BalanceSheetLines = []BalanceSheetLine{
	{Code: "110000000", Name: "Activo Corriente"},
	{Code: "120000000", Name: "Activo No Corriente"},
	{Code: "210000000", Name: "Pasivo Corriente"},
	{Code: "220000000", Name: "Pasivo No Corriente"},
	{Code: "311000000", Name: "Capital Fiscal"},
	{Code: "312100000", Name: "Resultados de Ejercicios Anteriores", Aliases: []string{"Resultado de Ejercicios Anteriores"}},
	{Code: "312200000", Name: "Resultado del ejercicio"},
	{
		Code:    "312300000",
		Name:    "Resultados afectados a la construccion de bienes de dominio publico",
		Aliases: []string{"Resultados afectados a construccion de bienes de dominio publico"},
	},
}

// BalanceSheetName returns the documented name of a balance sheet code.
func BalanceSheetName(code string) (string, bool) {
	for _, l := range BalanceSheetLines {
		if l.Code == code {
			return l.Name, true
		}
	}

	return "", false
}

// BalanceSheetCode returns the code of a documented balance sheet line
// given its name or one of its aliases.
func BalanceSheetCode(name string) (string, bool) {
	key := textkey.Key(name)

	for _, l := range BalanceSheetLines {
		if textkey.Key(l.Name) == key {
			return l.Code, true
		}

		for _, a := range l.Aliases {
			if textkey.Key(a) == key {
				return l.Code, true
			}
		}
	}

	return "", false
}

// InferBalanceKind infers the balance side from the code's leading digit,
// falling back to name keywords. The second result is true when the
// inference is not backed by a documented code.
func InferBalanceKind(code, name string) (BalanceKind, bool) {
	code = strings.TrimSpace(code)

	var byDigit BalanceKind

	if code != "" {
		switch code[0] {
		case '1':
			byDigit = BalanceAsset
		case '2', '3':
			byDigit = BalanceLiabilityAndEquity
		}
	}

	if _, documented := BalanceSheetName(code); documented && byDigit != "" {
		return byDigit, false
	}

	if byDigit != "" {
		return byDigit, true
	}

	key := textkey.Key(name)

	switch {
	case strings.Contains(key, "activo"):
		return BalanceAsset, true
	case textkey.ContainsAny(key, "pasivo", "patrimonio", "capital", "resultado"):
		return BalanceLiabilityAndEquity, true
	}

	return "", true
}
