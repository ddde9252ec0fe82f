package authorization

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/cristalhq/jwt/v4"

	errs "github.com/yijiasang/glamap/errors"
)

// Bearer tokens are issued and signed by the external identity provider; this
// service only verifies the signature and reads the claims. The shared secret
// comes from the provider's configuration.
var (
	jwtKey      = []byte(os.Getenv("SECRET_KEY"))
	verifier, _ = jwt.NewVerifierHS(jwt.HS256, jwtKey)
)

// Principal is the already-authenticated caller resolved from a bearer token.
type Principal struct {
	ExternalID string
	UserType   string
}

func parseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse([]byte(tokenString), verifier)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func GetMapClaims(tokenBytes []byte) map[string]string {
	var claims map[string]string

	err := jwt.ParseClaims(tokenBytes, verifier, &claims)
	if err != nil {
		return map[string]string{}
	}

	return claims
}

// ExtractPrincipal resolves the caller from the Authorization header. It
// fails with Unauthenticated for a missing or malformed credential.
func ExtractPrincipal(r *http.Request) (*Principal, error) {
	bearer := r.Header.Get("Authorization")
	if bearer == "" {
		return nil, fmt.Errorf("%w: missing authorization header", errs.ErrUnauthenticated)
	}

	bearerToken := strings.Split(bearer, "Bearer ")
	if len(bearerToken) != 2 {
		return nil, fmt.Errorf("%w: malformed authorization header", errs.ErrUnauthenticated)
	}

	token, err := parseToken(bearerToken[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthenticated)
	}

	claims := GetMapClaims(token.Bytes())
	sub, ok := claims["sub"]
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", errs.ErrUnauthenticated)
	}

	userType := claims["userType"]
	if userType == "" {
		userType = "user"
	}

	return &Principal{ExternalID: sub, UserType: userType}, nil
}
