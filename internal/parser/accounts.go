package parser

import (
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

var accountsSection = section{
	start: containsMarker("demostracion del saldo"),
	end:   []string{"evolucion de las principales metas"},
}

var accountCode = regexp.MustCompile(`^\d{6,12}\b`)

type accountsParser struct{}

func (accountsParser) Parse(text string) Result {
	rows, warnings := collect(KindAccounts, accountsSection.lines(text), func(l line) lineResult[report.Account] {
		// Balance sheet lines interleave with the accounts on the same page.
		if textkey.ContainsAny(l.Key, "total", "pasivo", "activo", "patrimonio") {
			return skip[report.Account]()
		}

		if len(nineDigitCode.FindAllString(l.Text, -1)) > 1 {
			return skip[report.Account]()
		}

		tokens := amount.FindAll(l.Text)
		if len(tokens) == 0 {
			return skip[report.Account]()
		}

		lastToken := tokens[len(tokens)-1]

		v, err := amount.Parse(lastToken)
		if err != nil {
			return warn[report.Account](err.Error())
		}

		rest := textkey.Name(l.Text[:strings.LastIndex(l.Text, lastToken)])
		if rest == "" {
			return skip[report.Account]()
		}

		if strings.HasPrefix(textkey.Key(rest), "caja") {
			return emit(report.Account{Name: "CAJA", Type: report.AccountCash, Amount: v})
		}

		if code := accountCode.FindString(rest); code != "" {
			if _, ok := report.BalanceSheetName(code); ok {
				return skip[report.Account]()
			}

			name := textkey.Name(rest[len(code):])
			if name == "" {
				name = code
			}

			return emit(report.Account{
				Code:   report.Ptr(code),
				Name:   name,
				Type:   report.AccountTypeFromName(name),
				Amount: v,
			})
		}

		return emit(report.Account{Name: rest, Type: report.AccountTypeFromName(rest), Amount: v})
	})

	return Result{Rows: report.Payload{Accounts: rows}, Warnings: warnings}
}
