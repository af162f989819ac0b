package openapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// LoadDefinition resolves a spec location, which may be a local file path or
// an http(s) URL, and initialises a Definition from its contents.
func LoadDefinition(location string) (*Definition, error) {
	data, err := readSpec(location)
	if err != nil {
		return nil, err
	}
	return NewDefinition(data)
}

func readSpec(location string) ([]byte, error) {
	if isURL(location) {
		return downloadSpec(location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", location, err)
	}
	return data, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// downloadSpec fetches a remote spec file
func downloadSpec(url string) ([]byte, error) {
	logger.Infof("downloading OpenAPI spec from %s", url)

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download spec file from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download spec file from %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file from %s: %w", url, err)
	}

	logger.Debugf("downloaded OpenAPI spec (%d bytes)", len(data))
	return data, nil
}
