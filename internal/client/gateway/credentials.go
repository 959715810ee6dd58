package gateway

// CredentialProvider supplies the bearer token attached to requests. It is
// implemented outside this package (see auth.TokenStore).
type CredentialProvider interface {
	// Token returns the current token, or false when there is none.
	Token() (string, bool)
	// OnTokenChanged stores a freshly acquired token.
	OnTokenChanged(token string)
	// ClearToken forgets the token.
	ClearToken()
}

// StaticToken is a fixed in-memory CredentialProvider.
type StaticToken struct {
	value string
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{value: token}
}

func (s *StaticToken) Token() (string, bool) {
	return s.value, s.value != ""
}

func (s *StaticToken) OnTokenChanged(token string) {
	s.value = token
}

func (s *StaticToken) ClearToken() {
	s.value = ""
}
