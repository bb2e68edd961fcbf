package notify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Templates maps each outbound message to a gateway template id.
type Templates struct {
	InviteNewUser        string `yaml:"invite_new_user"`
	InviteExistingUser   string `yaml:"invite_existing_user"`
	ServiceInvite        string `yaml:"service_invite"`
	ServiceInviteExists  string `yaml:"service_invite_user_exists"`
	ServiceInviteDisabled string `yaml:"service_invite_user_disabled"`
}

// LoadTemplates reads the template mapping from a YAML file.
func LoadTemplates(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("read templates file: %w", err)
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Templates{}, fmt.Errorf("parse templates file: %w", err)
	}
	if err := t.validate(); err != nil {
		return Templates{}, err
	}
	return t, nil
}

func (t Templates) validate() error {
	missing := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("templates file is missing %q", name)
		}
		return nil
	}
	for _, check := range []struct{ name, v string }{
		{"invite_new_user", t.InviteNewUser},
		{"invite_existing_user", t.InviteExistingUser},
		{"service_invite", t.ServiceInvite},
		{"service_invite_user_exists", t.ServiceInviteExists},
		{"service_invite_user_disabled", t.ServiceInviteDisabled},
	} {
		if err := missing(check.name, check.v); err != nil {
			return err
		}
	}
	return nil
}
