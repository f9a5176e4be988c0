package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders Default as TOML.
func Template() (string, error) {
	raw, err := toml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("config: render template: %w", err)
	}
	return templateHeader + string(raw), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const templateHeader = `# edgenetswitch daemon configuration
# log.level: debug|info|warn|error
# http.addr: empty disables the HTTP surface

`
