package pdftext_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
)

func TestFromText(t *testing.T) {
	input := "Evolución de los recursos\nTasas 1,00 1,00 1,00\f  Movimientos de Tesorería\nSaldo Inicial: 5,00\n"

	pages, err := pdftext.FromText(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Evolución de los recursos\nTasas 1,00 1,00 1,00", pages[0].Text)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "Movimientos de Tesorería\nSaldo Inicial: 5,00", pages[1].Text)

	assert.Equal(t, pages[0].Text+"\n"+pages[1].Text, pdftext.Join(pages))
}

func TestFromText_Empty(t *testing.T) {
	_, err := pdftext.FromText(strings.NewReader(" \f \n"))
	assert.True(t, errors.Is(err, pdftext.ErrNoText))
}

func TestFromPDF_Invalid(t *testing.T) {
	_, err := pdftext.FromPDF([]byte("not a pdf"))
	require.Error(t, err)
}
