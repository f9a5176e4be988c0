package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Loaded is a decoded config plus where it came from.
type Loaded struct {
	Config Config
	Path   string
	// Unknown lists keys present in the file that no field consumed.
	Unknown []string
}

// PathFromEnv returns EnvConfigPath when set, else DefaultPath.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultPath
}

// ResolvePath finds path, searching upward from the working directory when
// path is relative. The error wraps ErrConfigNotFound and lists every
// candidate tried.
func ResolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrConfigNotFound)
	}

	var candidates []string
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("config: working directory: %w", err)
		}
		for {
			candidates = append(candidates, filepath.Join(dir, path))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched: %s)", ErrConfigNotFound, path, strings.Join(candidates, " "))
}

// Load resolves path and decodes it over Default. The format follows the
// file extension: .yaml/.yml, .json, anything else is TOML. Keys no field
// consumes are reported in Loaded.Unknown for every format.
func Load(path string) (Loaded, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Loaded{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("%w: %s", ErrConfigNotFound, resolved)
		}
		return Loaded{}, fmt.Errorf("config: read %s: %w", resolved, err)
	}

	out := Loaded{Config: Default(), Path: resolved}
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out.Config); err != nil {
			return Loaded{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, resolved, err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Loaded{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, resolved, err)
		}
		out.Unknown = unknownKeys(raw, reflect.TypeOf(Config{}), "yaml", "")
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&out.Config); err != nil {
			return Loaded{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, resolved, err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return Loaded{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, resolved, err)
		}
		out.Unknown = unknownKeys(raw, reflect.TypeOf(Config{}), "json", "")
	default:
		meta, err := toml.Decode(string(data), &out.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, resolved, err)
		}
		for _, key := range meta.Undecoded() {
			out.Unknown = append(out.Unknown, key.String())
		}
	}

	normalize(&out.Config)
	return out, nil
}

// LoadValidated loads path and runs Validate.
func LoadValidated(path string) (Loaded, error) {
	loaded, err := Load(path)
	if err != nil {
		return Loaded{}, err
	}
	if err := Validate(loaded.Config); err != nil {
		return Loaded{}, fmt.Errorf("%s: %w", loaded.Path, err)
	}
	return loaded, nil
}

// unknownKeys walks raw against the struct tags of t and returns the dotted
// paths no field consumes, sorted.
func unknownKeys(raw map[string]any, t reflect.Type, tag, prefix string) []string {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = f.Type
	}

	var out []string
	for key, value := range raw {
		path := prefix + key
		ft, ok := fields[key]
		if !ok {
			out = append(out, path)
			continue
		}
		nested, isMap := value.(map[string]any)
		if isMap && ft.Kind() == reflect.Struct {
			out = append(out, unknownKeys(nested, ft, tag, path+".")...)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	cfg.Control.Socket = strings.TrimSpace(cfg.Control.Socket)
	cfg.HTTP.Addr = strings.TrimSpace(cfg.HTTP.Addr)
}
