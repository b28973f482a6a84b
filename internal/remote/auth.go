package remote

// Authenticator provides credentials for registry operations.
type Authenticator interface {
	// Authenticate returns credentials for the given registry. Empty
	// credentials fall back to the ambient docker keychain.
	Authenticate(registry string) (username, password string, err error)
}

// StaticAuthenticator returns fixed credentials regardless of registry.
type StaticAuthenticator struct {
	Username string
	Password string
}

func (a *StaticAuthenticator) Authenticate(registry string) (string, string, error) {
	return a.Username, a.Password, nil
}
