package uploader

import (
	"testing"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/notify"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFileAcceptsAllowedExtensions(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.doc", "c.docx", "d.txt", "e.jpg", "f.jpeg", "g.png", "H.PDF"} {
		u := New(notify.NewRecorder())
		sel, err := u.SelectFile(models.SelectedFile{Name: name, Data: []byte("x")})
		require.NoError(t, err, name)
		assert.Equal(t, name, sel.Name)
		assert.NotEmpty(t, sel.ContentType)
		assert.NotNil(t, u.Selected())
	}
}

func TestSelectFileRejectsGIF(t *testing.T) {
	rec := notify.NewRecorder()
	u := New(rec)

	sel, err := u.SelectFile(models.SelectedFile{Name: "image.gif", ContentType: "image/gif", Data: []byte("GIF89a")})
	assert.Nil(t, sel)
	assert.ErrorIs(t, err, utils.ErrUnsupportedFileType)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
	assert.Nil(t, u.Selected())
	assert.Equal(t, models.DocumentTypeResume, u.Category())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, models.NotificationError, last.Variant)
}

func TestRejectedFileKeepsPreviousSelection(t *testing.T) {
	u := New(notify.NewRecorder())
	_, err := u.SelectFile(models.SelectedFile{Name: "resume.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	_, err = u.SelectFile(models.SelectedFile{Name: "virus.exe", Data: []byte("MZ")})
	require.Error(t, err)

	require.NotNil(t, u.Selected())
	assert.Equal(t, "resume.pdf", u.Selected().Name)
}

func TestSelectFileReplacesAndDerivesContentType(t *testing.T) {
	rec := notify.NewRecorder()
	u := New(rec)

	_, err := u.SelectFile(models.SelectedFile{Name: "first.txt", Data: []byte("one")})
	require.NoError(t, err)
	_, err = u.SelectFile(models.SelectedFile{Name: "resume.pdf", ContentType: "application/octet-stream", Data: make([]byte, 50*1024)})
	require.NoError(t, err)

	sel := u.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "resume.pdf", sel.Name)
	assert.Equal(t, models.ContentTypePDF, sel.ContentType)

	last, _ := rec.Last()
	assert.Equal(t, "File selected", last.Title)
	assert.Equal(t, "resume.pdf (50.00 KB)", last.Description)
}

func TestChooseCategoryClearsSelectionOnChange(t *testing.T) {
	u := New(notify.NewRecorder())
	_, err := u.SelectFile(models.SelectedFile{Name: "resume.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	require.NoError(t, u.ChooseCategory(models.DocumentTypeResume))
	assert.NotNil(t, u.Selected(), "same category keeps the file")

	require.NoError(t, u.ChooseCategory(models.DocumentTypeInvoice))
	assert.Nil(t, u.Selected())
	assert.Equal(t, models.DocumentTypeInvoice, u.Category())

	err = u.ChooseCategory("passport")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
	assert.Equal(t, models.DocumentTypeInvoice, u.Category())
}

func TestClearSelectionIsIdempotent(t *testing.T) {
	u := New(notify.NewRecorder())
	u.ClearSelection()

	_, err := u.SelectFile(models.SelectedFile{Name: "notes.txt", Data: []byte("hi")})
	require.NoError(t, err)

	u.ClearSelection()
	u.ClearSelection()
	assert.Nil(t, u.Selected())
}

func TestSelectedReturnsCopy(t *testing.T) {
	u := New(notify.NewRecorder())
	_, err := u.SelectFile(models.SelectedFile{Name: "a.txt", Data: []byte("hi")})
	require.NoError(t, err)

	u.Selected().Name = "mutated.txt"
	assert.Equal(t, "a.txt", u.Selected().Name)
}
