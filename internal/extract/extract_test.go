package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "cv-analyzer-client/internal/common/errors"
	"cv-analyzer-client/internal/models"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewFile_AssignsStableIdentity(t *testing.T) {
	path := writeTempFile(t, "Jane_Doe.PDF", "resume")

	file, err := NewFile(path)
	require.NoError(t, err)

	assert.NotEmpty(t, file.ID)
	assert.Equal(t, "Jane_Doe.PDF", file.Name)
	assert.Equal(t, ".pdf", file.Ext)
	assert.EqualValues(t, 6, file.Size)

	other, err := NewFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, file.ID, other.ID, "each selection gets its own identifier")
}

func TestText_PlainFile(t *testing.T) {
	path := writeTempFile(t, "resume.txt", "  Jane Doe\n\n\nSenior Go Engineer  \n")
	file, err := NewFile(path)
	require.NoError(t, err)

	text, err := Text(file)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer", text)
}

func TestText_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "resume.exe", "binary")
	file, err := NewFile(path)
	require.NoError(t, err)

	_, err = Text(file)
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestStripDocxMarkup(t *testing.T) {
	content := `<w:document><w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go &amp; Kubernetes</w:t></w:r></w:p></w:body></w:document>`

	assert.Equal(t, "Jane Doe\nGo & Kubernetes", CleanText(stripDocxMarkup(content)))
}

func TestValidateFile(t *testing.T) {
	allowed := []string{".pdf", ".docx", ".txt", ".md"}

	tests := []struct {
		name    string
		file    models.UploadedFile
		wantErr string
	}{
		{
			name: "accepted",
			file: models.UploadedFile{Name: "jane.pdf", Ext: ".pdf", Size: 1024},
		},
		{
			name:    "disallowed extension",
			file:    models.UploadedFile{Name: "jane.exe", Ext: ".exe", Size: 1024},
			wantErr: "unsupported type",
		},
		{
			name:    "too large",
			file:    models.UploadedFile{Name: "jane.pdf", Ext: ".pdf", Size: 20 << 20},
			wantErr: "exceeding",
		},
		{
			name:    "empty",
			file:    models.UploadedFile{Name: "jane.pdf", Ext: ".pdf", Size: 0},
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, 10<<20, allowed)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, clienterrors.IsValidation(err))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStats(t *testing.T) {
	lines, words := Stats("Jane Doe\n\nSenior Go Engineer\nRedis, Postgres, Kubernetes")
	assert.Equal(t, 3, lines)
	assert.Equal(t, 8, words)

	lines, words = Stats("")
	assert.Equal(t, 0, lines)
	assert.Equal(t, 0, words)
}
