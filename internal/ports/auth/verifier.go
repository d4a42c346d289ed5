package auth

import "context"

// AuthVerifier valida un bearer token. Lo implementa adapters/auth/remote;
// nil en el router significa modo dev.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
