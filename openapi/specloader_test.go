package openapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefinitionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petSpec), 0644))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Len(t, def.Operations(), 3)
}

func TestLoadDefinitionMissingFile(t *testing.T) {
	_, err := LoadDefinition("/nonexistent/pets.yaml")
	assert.Error(t, err)
}

func TestLoadDefinitionFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(petSpec))
	}))
	defer server.Close()

	def, err := LoadDefinition(server.URL + "/pets.yaml")
	require.NoError(t, err)
	assert.Len(t, def.Operations(), 3)
}

func TestLoadDefinitionURLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := LoadDefinition(server.URL + "/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
