package main

import (
	"os"

	"github.com/apiroute-project/apiroute-go/adapter"
	"github.com/apiroute-project/apiroute-go/adapter/awslambda"
	"github.com/apiroute-project/apiroute-go/adapter/httpserver"
	"github.com/apiroute-project/apiroute-go/backend"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/internal/config"
	"github.com/apiroute-project/apiroute-go/mock"
	"github.com/apiroute-project/apiroute-go/openapi"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

func main() {
	logger.Infoln("starting apiroute...")

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	b, err := buildBackend(cfg)
	if err != nil {
		logger.Errorf("failed to initialise backend: %v", err)
		os.Exit(1)
	}

	var a adapter.Adapter
	if adapter.IsLambda() {
		a = awslambda.New(b)
	} else {
		serverCfg := config.LoadServerConfig()
		a = httpserver.New(":"+serverCfg.Port, b)
	}
	if err := a.Start(); err != nil {
		logger.Errorf("adapter stopped: %v", err)
		os.Exit(1)
	}
}

func configPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if path := os.Getenv("APIROUTE_CONFIG"); path != "" {
		return path
	}
	logger.Errorln("config file path must be provided either as an argument or via APIROUTE_CONFIG")
	os.Exit(1)
	return ""
}

// buildBackend mounts every configured definition with mock handlers for all
// of its operations, so unimplemented APIs serve spec-derived responses
func buildBackend(cfg *config.Config) (*backend.Backend, error) {
	b := backend.New(
		backend.WithResponseValidation(responseBehaviour(cfg)),
		backend.WithTrimming(trimStrategy(cfg)),
	)
	b.Intercept(backend.AccessLog(), backend.RequestID())

	for _, mountCfg := range cfg.Mounts {
		definition, err := openapi.LoadDefinition(mountCfg.Spec)
		if err != nil {
			return nil, err
		}

		handlers := make(map[string]backend.Handler)
		for _, op := range definition.Operations() {
			handlers[op.ID] = mock.Handler()
		}

		// mock serving accepts any credentials for declared schemes
		authorizers := make(map[string]backend.Authorizer)
		for _, scheme := range definition.SecuritySchemeNames() {
			authorizers[scheme] = allowAll
		}

		b.RegisterDefinition(definition, handlers, authorizers, mountCfg.Prefix)
		logger.Infof("mounted %s at %q with %d operations", mountCfg.Spec, mountCfg.Prefix, len(definition.Operations()))
	}
	return b, nil
}

func allowAll(c *exchange.Context, requirement openapi.SecurityRequirement) (any, error) {
	return map[string]any{}, nil
}

func responseBehaviour(cfg *config.Config) backend.ValidationBehaviour {
	if cfg.Validation.Response == string(backend.ValidationBehaviourFail) {
		return backend.ValidationBehaviourFail
	}
	return backend.ValidationBehaviourWarn
}

func trimStrategy(cfg *config.Config) backend.TrimStrategy {
	switch cfg.Validation.Trim {
	case string(backend.TrimFailing):
		return backend.TrimFailing
	case string(backend.TrimAll):
		return backend.TrimAll
	default:
		return backend.TrimNone
	}
}
