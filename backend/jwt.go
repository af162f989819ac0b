package backend

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/openapi"
)

// JWTBearer returns an authorizer that validates HMAC-signed bearer tokens
// from the Authorization header. The token's space-separated "scope" claim
// must cover every scope the matched security requirement demands. The
// parsed claims become the authorizer's result in the security results map.
func JWTBearer(secret []byte) Authorizer {
	return func(c *exchange.Context, requirement openapi.SecurityRequirement) (any, error) {
		header := c.Raw.Header("Authorization")
		if header == "" {
			return nil, fmt.Errorf("missing Authorization header")
		}
		tokenString, isBearer := strings.CutPrefix(header, "Bearer ")
		if !isBearer {
			return nil, fmt.Errorf("Authorization header is not a bearer token")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, isHMAC := t.Method.(*jwt.SigningMethodHMAC); !isHMAC {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			return nil, fmt.Errorf("invalid bearer token: %w", err)
		}
		if !token.Valid {
			return nil, fmt.Errorf("invalid bearer token")
		}

		if err := checkScopes(claims, requirement.Scopes); err != nil {
			return nil, err
		}
		return map[string]any(claims), nil
	}
}

// checkScopes verifies the token's scope claim covers the required scopes
func checkScopes(claims jwt.MapClaims, required []string) error {
	if len(required) == 0 {
		return nil
	}
	scopeClaim, _ := claims["scope"].(string)
	granted := make(map[string]bool)
	for _, scope := range strings.Fields(scopeClaim) {
		granted[scope] = true
	}
	for _, scope := range required {
		if !granted[scope] {
			return fmt.Errorf("token missing required scope %q", scope)
		}
	}
	return nil
}
