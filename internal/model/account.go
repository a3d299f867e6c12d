package model

// Account is a logged-in Atlassian identity.
type Account struct {
	// ID is the Atlassian accountId.
	ID string `json:"id"`

	// Username is the login e-mail used for Basic authentication.
	Username string `json:"username"`

	// EncryptedToken is an opaque reference to the API token. It is only
	// resolved to plain text when building a request.
	EncryptedToken string `json:"token"`

	DisplayName string `json:"name"`
	AvatarURL   string `json:"avatar"`
}

// Label returns the best human-readable name for the account.
func (a Account) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}

// AuthState is the persisted set of logged-in accounts.
type AuthState struct {
	Accounts []Account `json:"accounts"`
}

// FindAccount returns the account with the given ID.
func (s AuthState) FindAccount(id string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
