package extractor

import (
	"archive/zip"
	"bytes"
	"os"
	"testing"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	data, err := os.ReadFile("testdata/sample.pdf")
	if err != nil {
		t.Skip("testdata/sample.pdf not available")
	}

	text, err := ExtractPDF(data)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	_, err := ExtractPDF([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t>Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := ExtractDOCX(data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Engineer", text)
}

func TestExtractDOCXTablesAndBreaks(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Challan No</w:t><w:tab/><w:t>DC-42</w:t></w:r></w:p>
    <w:p><w:r><w:t>Consignee</w:t><w:br/><w:t>Acme Traders</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Item</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Qty</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Steel bolts</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>200</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`)

	text, err := ExtractDOCX(data)
	require.NoError(t, err)
	assert.Equal(t, "Challan No\tDC-42\nConsignee\nAcme Traders\nItem\tQty\nSteel bolts\t200", text)
}

func TestExtractDOCXEmpty(t *testing.T) {
	data := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`)

	_, err := ExtractDOCX(data)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractDOCX(buf.Bytes())
	assert.ErrorContains(t, err, "document.xml not found")
}

func TestExtractTXT(t *testing.T) {
	text, err := ExtractTXT([]byte("\xEF\xBB\xBFInvoice 1001\r\n\r\n  Total: 250.00  \r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Invoice 1001\nTotal: 250.00", text)
}

func TestExtractTXTEncodings(t *testing.T) {
	// "Total" in UTF-16LE with a byte order mark.
	utf16 := []byte{0xFF, 0xFE, 'T', 0, 'o', 0, 't', 0, 'a', 0, 'l', 0}
	text, err := ExtractTXT(utf16)
	require.NoError(t, err)
	assert.Equal(t, "Total", text)

	// 0xE9 is e-acute in Windows-1252 and invalid UTF-8 on its own.
	text, err = ExtractTXT([]byte("Caf\xE9 receipt"))
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 receipt", text)

	text, err = ExtractTXT([]byte("Na\u00efve r\u00e9sum\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, "Na\u00efve r\u00e9sum\u00e9", text)
}

func TestExtractTXTRejectsBinary(t *testing.T) {
	_, err := ExtractTXT([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
	assert.Error(t, err)

	_, err = ExtractTXT(nil)
	assert.Error(t, err)

	_, err = ExtractTXT([]byte(" \r\n\t\n"))
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestExtractDispatch(t *testing.T) {
	text, err := Extract(models.ContentTypeTXT, []byte("Delivery challan 7"))
	require.NoError(t, err)
	assert.Equal(t, "Delivery challan 7", text)

	for _, ct := range []string{models.ContentTypeJPEG, models.ContentTypePNG, models.ContentTypeDOC} {
		_, err := Extract(ct, []byte{0xFF, 0xD8})
		assert.ErrorIs(t, err, ErrNoTextLayer, ct)
	}

	_, err = Extract("image/gif", []byte("GIF89a"))
	assert.ErrorContains(t, err, "unsupported content type")
}
