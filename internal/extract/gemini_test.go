package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsResponseFormatError(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want bool
	}

	tests := []testCase{
		{name: "MimeType", err: errors.New("Error 400: response_mime_type is not supported"), want: true},
		{name: "JSONSchema", err: errors.New("invalid argument: responseJsonSchema"), want: true},
		{name: "Other", err: errors.New("quota exceeded"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isResponseFormatError(tt.err))
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1} "))
}

func TestReclassifyAccounts(t *testing.T) {
	w := wirePayload{
		Accounts: []wireAccount{
			{Name: "Banco Provincia", Code: strPtr("111")},
			{Name: "Capital Fiscal"},
			{Name: "Pasivo Corriente", Code: strPtr("210000000")},
			{Name: "Activo Corriente", Code: strPtr("AC")},
		},
	}

	assert.Equal(t, 3, w.reclassifyAccounts())
	assert.Len(t, w.Accounts, 1)
	assert.Equal(t, "Banco Provincia", w.Accounts[0].Name)
	assert.Len(t, w.BalanceSheet, 3)
}

func strPtr(s string) *string {
	return &s
}
