package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

// DefaultMaxBytes is the upload size limit.
const DefaultMaxBytes = 20 << 20

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var zipSignature = []byte("PK\x03\x04")

// DetectFormat checks an upload and returns its format. PDFs must start
// with the %PDF signature, spreadsheets must be XLSX archives and text
// layers need a .txt name.
func DetectFormat(fileName string, data []byte, maxBytes int64) (Format, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidFile)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %s exceeds the %s limit",
			ErrInvalidFile, humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(maxBytes)))
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		return FormatPDF, nil
	}

	mtype := mimetype.Detect(data)
	ext := filepath.Ext(fileName)

	switch {
	case bytes.HasPrefix(data, zipSignature) && (mtype.Is(mimeXLSX) || strings.EqualFold(ext, ".xlsx")):
		return FormatXLSX, nil
	case isText(mtype) && strings.EqualFold(ext, ".txt"):
		return FormatText, nil
	}

	return "", fmt.Errorf("%w: unsupported content %s", ErrInvalidFile, mtype.String())
}

// StoragePath is the content-addressed location of a file:
// documentos/{municipality}/{sha256}.{ext}.
func StoragePath(municipality, hash string, format Format) string {
	muni := strings.ToLower(textkey.Slug(municipality))
	if muni == "" {
		muni = "sin_municipio"
	}

	return "documentos/" + muni + "/" + hash + "." + string(format)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}

	return false
}
