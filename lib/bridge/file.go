package bridge

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/samber/oops"
)

// LoadConfig reads a YAML config file, applies defaults for fields the
// file leaves unset, and validates the result.
//
// Example file:
//
//	admission_addr: ":9001"
//	relay_addr: ":9002"
//	debug: false
//	timeouts:
//	  admission: 5s
//	limits:
//	  max_connections: 0
//	  throttle_size: 1024
//	  throttle_window: 1s
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "reading config file %s", path)
	}

	conf := DefaultConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, oops.Wrapf(err, "parsing config file %s", path)
	}

	if err := conf.Validate(); err != nil {
		return nil, oops.Wrapf(err, "validating config file %s", path)
	}
	return conf, nil
}
