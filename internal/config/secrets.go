package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups postscout's secrets in the OS keychain.
const KeyringService = "postscout"

// ErrNoPassword is returned when no LinkedIn password could be found.
var ErrNoPassword = errors.New("linkedin password not found (pass --password, set linkedin.password, or run `postscout secret set`)")

// ResolvePassword fills LinkedIn.Password from the keyring when neither a flag
// nor the config file supplied one.
func (c *Config) ResolvePassword() error {
	if c.LinkedIn.Password != "" {
		return nil
	}
	if strings.TrimSpace(c.LinkedIn.Email) == "" {
		return ErrNoPassword
	}
	pw, err := keyring.Get(KeyringService, c.LinkedIn.Email)
	if err != nil || strings.TrimSpace(pw) == "" {
		return ErrNoPassword
	}
	c.LinkedIn.Password = pw
	return nil
}

// StorePassword saves the LinkedIn password for email in the OS keyring.
func StorePassword(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("keyring account (email) is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	if err := keyring.Set(KeyringService, email, password); err != nil {
		return fmt.Errorf("store password in keyring: %w", err)
	}
	return nil
}

// DeletePassword removes the stored password for email.
func DeletePassword(email string) error {
	if err := keyring.Delete(KeyringService, email); err != nil {
		return fmt.Errorf("delete password from keyring: %w", err)
	}
	return nil
}
