package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigureOperation represents a configuration operation
type ConfigureOperation struct {
	Name        string
	Description string
	Handler     func(cfg *Config, path string, out io.Writer) error
}

// GetOperations returns available configuration operations
func GetOperations() []ConfigureOperation {
	return []ConfigureOperation{
		{
			Name:        "show",
			Description: "Show the effective configuration",
			Handler:     showConfig,
		},
		{
			Name:        "init",
			Description: "Write the discovered defaults to the config file",
			Handler:     initConfig,
		},
		{
			Name:        "path",
			Description: "Print the config file location",
			Handler:     printPath,
		},
	}
}

// FindOperation looks up an operation by name
func FindOperation(name string) (ConfigureOperation, error) {
	for _, op := range GetOperations() {
		if op.Name == name {
			return op, nil
		}
	}
	return ConfigureOperation{}, fmt.Errorf("unknown operation: %s", name)
}

func showConfig(cfg *Config, path string, out io.Writer) error {
	fmt.Fprintf(out, "# %s\n", path)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func initConfig(cfg *Config, path string, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration written to %s\n", path)
	return nil
}

func printPath(_ *Config, path string, out io.Writer) error {
	fmt.Fprintln(out, path)
	return nil
}
