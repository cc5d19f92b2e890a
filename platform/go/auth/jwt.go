package auth

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
)

// VerifyUser validates the request's bearer token against Firebase Auth.
func VerifyUser(ctx context.Context, fbAuth *auth.Client, r *http.Request) (*auth.Token, error) {
	idToken, found := ExtractJWTToken(r)
	if !found {
		return nil, errors.New("auth token not found; unauthenticated calls are not allowed here")
	}

	token, err := fbAuth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// FirebaseTokenVerifier returns a VerifyFunc that validates tokens via Firebase Auth.
func FirebaseTokenVerifier(fbAuth *auth.Client) VerifyFunc {
	return func(ctx context.Context, token string) (map[string]interface{}, error) {
		t, err := fbAuth.VerifyIDToken(ctx, token)
		if err != nil {
			return nil, err
		}

		claims := make(map[string]interface{}, len(t.Claims)+2)
		for k, v := range t.Claims {
			claims[k] = v
		}
		claims["uid"] = t.UID
		claims["sub"] = t.Subject
		if tenant := t.Firebase.Tenant; tenant != "" {
			if firebaseClaim, ok := claims["firebase"].(map[string]interface{}); ok {
				firebaseClaim["tenant"] = tenant
				claims["firebase"] = firebaseClaim
			} else {
				claims["firebase"] = map[string]interface{}{"tenant": tenant}
			}
		}

		return claims, nil
	}
}
