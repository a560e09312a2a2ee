package auth

// Credentials holds the account identity read from the login file.
// Never logged; the metadata layer only ever sees that auth happened.
type Credentials struct {
	username string
	password string
}

func NewCredentials(username string, password string) Credentials {
	return Credentials{
		username: username,
		password: password,
	}
}

func (c Credentials) Username() string {
	return c.username
}

func (c Credentials) Password() string {
	return c.password
}

// tokenDTO mirrors the token dispenser's JSON payload.
type tokenDTO struct {
	Token string `json:"token"`
}
