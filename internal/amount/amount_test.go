package amount_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/muniledger/internal/amount"
)

func TestParse(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}

	tests := []testCase{
		{name: "Thousands and decimals", input: "1.234,56", want: 1234.56},
		{name: "Parentheses are negative", input: "(123,45)", want: -123.45},
		{name: "Minus sign", input: "-588,74", want: -588.74},
		{name: "Millions", input: "12.345.678,90", want: 12345678.90},
		{name: "No thousands", input: "10,00", want: 10},
		{name: "Surrounding spaces", input: "  900,00 ", want: 900},
		{name: "Empty", input: "", wantErr: true},
		{name: "Empty parentheses", input: "()", wantErr: true},
		{name: "Garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := amount.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, amount.ErrInvalid))

				var perr *amount.ParseError
				assert.True(t, errors.As(err, &perr))
				assert.Equal(t, tt.input, perr.Input)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFindAll(t *testing.T) {
	line := "1234567890 01 Salud 1.000,00 900,00 (850,00) 800,00 750,00"

	got := amount.FindAll(line)
	assert.Equal(t, []string{"1.000,00", "900,00", "(850,00)", "800,00", "750,00"}, got)

	assert.Equal(t, []float64{1000, 900, -850, 800, 750}, amount.Values(line))
	assert.Equal(t, "1234567890 01 Salud", amount.Strip(line))
}

func TestFindAll_IgnoresCodes(t *testing.T) {
	assert.Empty(t, amount.FindAll("110000000 Activo Corriente"))
	assert.Empty(t, amount.FindAll("Del 01/01/2024 al 31/03/2024"))
}

func TestParseLoose(t *testing.T) {
	type testCase struct {
		name  string
		input string
		want  float64
	}

	tests := []testCase{
		{name: "Argentine", input: "1.234,56", want: 1234.56},
		{name: "English", input: "1,234.56", want: 1234.56},
		{name: "Plain", input: "1234.5", want: 1234.5},
		{name: "Thousands only", input: "1.500.000", want: 1500000},
		{name: "Comma decimal", input: "12,5", want: 12.5},
		{name: "Negative", input: "(10.00)", want: -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := amount.ParseLoose(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := amount.ParseLoose("n/a")
	assert.ErrorIs(t, err, amount.ErrInvalid)
}
