package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFilePath string
	parseOnce   sync.Once

	exportMu sync.Mutex
	exported = map[string]bool{}
)

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(fmt.Errorf("config %s: %w", displayPrefix(prefix), err))
	}
	return conf
}

// New loads the optional env file (the -env flag, else ./.env) into the
// process environment once, then fills T from variables under prefix.
func New[T any](prefix string) (*T, error) {
	if err := LoadEnvFile(resolveEnvPath()); err != nil {
		return nil, err
	}
	return Process[T](prefix)
}

// Process fills T from the current environment only.
func Process[T any](prefix string) (*T, error) {
	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// LoadEnvFile exports the key/values of an env file. An empty path means the
// default .env, which may be absent. Each file is exported at most once.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	exportMu.Lock()
	defer exportMu.Unlock()
	if exported[path] {
		return nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("env file %s is a directory", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		exported[path] = true
		return nil
	case err != nil:
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if err := exportEnvironment(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	exported[path] = true
	return nil
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

// exportEnvironment never overrides variables already set in the process.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}

func displayPrefix(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		return "<root>"
	}
	return prefix
}
