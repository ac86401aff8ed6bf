package identity

import (
	"context"
	"errors"
	"strings"

	domainuser "tradehub/internal/domain/user"
)

// ErrUnresolved means the presented credential does not map to an account.
var ErrUnresolved = errors.New("identity: token does not resolve to a user")

// Resolver turns a bearer credential into the calling account. Token
// issuance and verification belong to the surrounding auth layer; this
// service only needs the resulting identity.
type Resolver interface {
	ResolveToken(ctx context.Context, token string) (*domainuser.User, error)
}

// DirectoryResolver is the local-development resolver: it treats the
// bearer token as a user id (or email) and loads the account from the
// user directory. It performs no cryptographic verification and must be
// replaced by a real token verifier in front of untrusted traffic.
type DirectoryResolver struct {
	Users domainuser.Directory
}

func (r DirectoryResolver) ResolveToken(ctx context.Context, token string) (*domainuser.User, error) {
	token = strings.TrimSpace(token)
	if token == "" || r.Users == nil {
		return nil, ErrUnresolved
	}
	if user, err := r.Users.ByID(ctx, domainuser.ID(token)); err == nil {
		return user, nil
	}
	if strings.Contains(token, "@") {
		if user, err := r.Users.ByEmail(ctx, token); err == nil {
			return user, nil
		}
	}
	return nil, ErrUnresolved
}

var _ Resolver = DirectoryResolver{}
