package gateway

import "github.com/acmeware/shopsync/identity"

// Credentials resolves the bearer token that represents an identity on the
// remote system. An empty token means the identity has no remote
// representation and its local state is canonical; guests always resolve to
// an empty token.
type Credentials interface {
	Token(id identity.Identity) string
}

// CredentialsFunc adapts a function to the Credentials interface.
type CredentialsFunc func(id identity.Identity) string

func (f CredentialsFunc) Token(id identity.Identity) string {
	return f(id)
}
