package adapter

import (
	"os"
	"sync"
)

// Adapter represents a runtime adapter for the application
type Adapter interface {
	// Start begins the adapter's runtime execution
	Start() error
}

// Mode represents the runtime mode of the application
type Mode int

const (
	ModeUnknown Mode = iota
	ModeLambda
	ModeHTTPServer
)

var (
	currentMode Mode
	modeOnce    sync.Once
)

func init() {
	DetectMode()
}

// DetectMode determines and sets the runtime mode of the application
func DetectMode() Mode {
	modeOnce.Do(func() {
		if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
			currentMode = ModeLambda
		} else {
			currentMode = ModeHTTPServer
		}
	})
	return currentMode
}

// IsLambda returns true if running in AWS Lambda mode
func IsLambda() bool {
	return currentMode == ModeLambda
}

// IsHTTPServer returns true if running in HTTP server mode
func IsHTTPServer() bool {
	return currentMode == ModeHTTPServer
}
