package backend

import (
	"errors"
	"fmt"

	"github.com/apiroute-project/apiroute-go/apierrors"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/openapi"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// authorize evaluates the operation's security requirement alternatives in
// declaration order. Within one alternative every scheme must succeed; the
// first fully-satisfied alternative wins and its results populate the
// context. When an alternative fails, the remaining schemes in the same set
// are still evaluated so every failure is reported. With no declared
// requirements, authorization trivially succeeds with an empty results map
// and no authorizer is invoked.
func (b *Backend) authorize(c *exchange.Context, api *registeredAPI, op *openapi.Operation) error {
	alternatives := op.SecurityAlternatives()
	if len(alternatives) == 0 {
		c.Security = &exchange.SecurityResult{Results: map[string]any{}}
		return nil
	}

	collected := make(map[string]error)
	collect := func(name string, err error) {
		// a scheme can fail in more than one alternative; keep every failure
		if prev, exists := collected[name]; exists {
			collected[name] = errors.Join(prev, err)
			return
		}
		collected[name] = err
	}

	for _, alternative := range alternatives {
		results := make(map[string]any, len(alternative))
		satisfied := true

		for _, requirement := range alternative {
			authorizer, registered := api.authorizers[requirement.Name]
			if !registered {
				satisfied = false
				collect(requirement.Name, fmt.Errorf("no authorizer registered for scheme %q", requirement.Name))
				continue
			}
			value, err := authorizer(c, requirement)
			if err != nil {
				logger.Debugf("scheme %q failed for operation %q: %v", requirement.Name, op.ID, err)
				satisfied = false
				collect(requirement.Name, err)
				continue
			}
			results[requirement.Name] = value
		}

		if satisfied {
			c.Security = &exchange.SecurityResult{Results: results}
			return nil
		}
	}

	return apierrors.Unauthorized(collected)
}
