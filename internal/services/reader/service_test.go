package reader

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"veritas-desktop/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkChapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/leitor/obras/confissao-de-westminster/3", r.URL.Path)
		w.Write([]byte(`[
			{"id": 1, "chapterNumber": 3, "content": "Primeiro parágrafo."},
			{"id": 2, "chapterNumber": 3, "content": "Segundo parágrafo."}
		]`))
	}))
	defer server.Close()

	service := NewService(api.NewClient(server.URL))
	passages, err := service.WorkChapter("confissao-de-westminster", 3)

	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "Primeiro parágrafo.", passages[0].Content)
	require.NotNil(t, passages[0].ChapterNumber)
	assert.Equal(t, 3, *passages[0].ChapterNumber)
}

func TestBibleChapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/leitor/biblia/joao/3", r.URL.Path)
		w.Write([]byte(`[
			{"id": 9, "book": "joao", "startVerse": 16, "noteContent": "Nota...", "source": "Bíblia de Genebra"}
		]`))
	}))
	defer server.Close()

	service := NewService(api.NewClient(server.URL))
	notes, err := service.BibleChapter("joao", 3)

	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 16, notes[0].StartVerse)
	assert.Equal(t, "Bíblia de Genebra", notes[0].Source)
}
