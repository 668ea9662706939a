package portal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes how to talk to the portal and where the balance sits in
// its markup.
//
// The balance locator is a CSS selector and the first matching element wins.
// The default targets the only <table class="tab"> on the account page and
// takes the first <span> inside one of its cells, which holds text like
// "100.00 руб". Positional row/column locators are not supported because they
// break as soon as the table gains or reorders a row.
type Profile struct {
	URL             string `yaml:"url"`
	LoginField      string `yaml:"login_field"`
	PasswordField   string `yaml:"password_field"`
	ErrorSelector   string `yaml:"error_selector"`
	BalanceSelector string `yaml:"balance_selector"`
	UserAgent       string `yaml:"user_agent,omitempty"`
}

const (
	DefaultURL             = "http://cabinet.telecom.mipt.ru/"
	DefaultLoginField      = "login"
	DefaultPasswordField   = "password"
	DefaultErrorSelector   = "div#error"
	DefaultBalanceSelector = "table.tab tr > td > span"
)

// DefaultProfile returns the profile of the telecom.mipt.ru cabinet.
func DefaultProfile() Profile {
	return Profile{
		URL:             DefaultURL,
		LoginField:      DefaultLoginField,
		PasswordField:   DefaultPasswordField,
		ErrorSelector:   DefaultErrorSelector,
		BalanceSelector: DefaultBalanceSelector,
	}
}

// WithDefaults fills empty fields from DefaultProfile.
func (p Profile) WithDefaults() Profile {
	d := DefaultProfile()
	if p.URL == "" {
		p.URL = d.URL
	}
	if p.LoginField == "" {
		p.LoginField = d.LoginField
	}
	if p.PasswordField == "" {
		p.PasswordField = d.PasswordField
	}
	if p.ErrorSelector == "" {
		p.ErrorSelector = d.ErrorSelector
	}
	if p.BalanceSelector == "" {
		p.BalanceSelector = d.BalanceSelector
	}
	return p
}

// LoadProfile reads a YAML profile. Fields left out take their defaults.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read portal profile %s: %w", path, err)
	}
	return LoadProfileFromBytes(data)
}

// LoadProfileFromBytes parses a YAML profile from raw bytes.
func LoadProfileFromBytes(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse portal profile: %w", err)
	}
	return p.WithDefaults(), nil
}
