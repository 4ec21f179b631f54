package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/muniledger/internal/encoding"
)

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Evolución de los recursos\nDe libre disponibilidad 7.000,00\n"
	r, err := encoding.NewUTF8Reader(bytes.NewReader([]byte(input)))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNewUTF8Reader_Latin1(t *testing.T) {
	// Windows-1252 "Situación Patrimonial\n": ó = 0xF3.
	latin1Bytes := []byte{
		'S', 'i', 't', 'u', 'a', 'c', 'i', 0xF3, 'n', ' ',
		'P', 'a', 't', 'r', 'i', 'm', 'o', 'n', 'i', 'a', 'l', '\n',
	}

	r, err := encoding.NewUTF8Reader(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Situación Patrimonial\n", string(got))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	content := []byte("Movimientos de Tesorería\n")
	input := append(bom, content...)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Movimientos de Tesorería\n", string(got))
}

func TestReadString(t *testing.T) {
	got, err := encoding.ReadString(bytes.NewReader([]byte{'M', 'e', 't', 'a', 's', ' ', 'f', 0xED, 's', 'i', 'c', 'a', 's'}))
	require.NoError(t, err)
	assert.Equal(t, "Metas físicas", got)
}
