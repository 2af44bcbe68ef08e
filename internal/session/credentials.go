package session

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the stored passwords in the OS keychain.
const KeyringService = "apply-agent"

// Environment variables read for credentials.
const (
	EnvUsername = "LINKEDIN_USERNAME"
	EnvPassword = "LINKEDIN_PASSWORD"
)

// Credentials are the job board login.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads the username and password from the environment. When the password
// is not set there it falls back to the keyring entry for the username.
func LoadCredentials() (Credentials, error) {
	c := Credentials{
		Username: strings.TrimSpace(os.Getenv(EnvUsername)),
		Password: os.Getenv(EnvPassword),
	}
	if c.Username == "" {
		return c, &AuthenticationError{Message: EnvUsername + " is not set"}
	}
	if strings.TrimSpace(c.Password) != "" {
		return c, nil
	}

	pw, err := keyring.Get(KeyringService, c.Username)
	if err != nil || strings.TrimSpace(pw) == "" {
		cause := err
		if errors.Is(err, keyring.ErrNotFound) {
			cause = nil
		}
		return c, &AuthenticationError{
			Message: "password not found (set " + EnvPassword + " or store it with `apply_agent credentials set`)",
			Cause:   cause,
		}
	}
	c.Password = pw
	return c, nil
}

// SetPassword stores the password for username in the keyring.
func SetPassword(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, username, password)
}

// DeletePassword removes the keyring entry for username.
func DeletePassword(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is empty")
	}
	return keyring.Delete(KeyringService, username)
}
