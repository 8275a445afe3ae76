package lookup

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/empire"
	"gopkg.in/yaml.v3"
)

// Custom is the example handler from the stacker documentation.
func Custom(input string) (any, error) {
	return "Custom Lookup: " + input, nil
}

// Env reads an environment variable. NAME::default supplies a value for when it is unset.
func Env(input string) (any, error) {
	name, def, hasDefault := strings.Cut(input, "::")
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if hasDefault {
		return def, nil
	}
	return nil, fmt.Errorf("environment variable %s is not set", name)
}

// File reads a file given as codec:path. The plain codec returns the content as is, base64
// encodes it, and json and yaml parse it into a value.
func File(input string) (any, error) {
	codec, path, ok := strings.Cut(input, ":")
	if !ok {
		return nil, fmt.Errorf("expected codec:path, got %q", input)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch codec {
	case "plain":
		return string(content), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(content), nil
	case "json":
		var v any
		if err := json.Unmarshal(content, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return v, nil
	case "yaml":
		var v any
		if err := yaml.Unmarshal(content, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown file codec %q", codec)
}

type databaseURLArgs struct {
	Provider string `mapstructure:"provider"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	DBName   string `mapstructure:"db_name"`
}

// DatabaseURL builds a database url from key=value pairs separated by commas, eg.
// provider=postgres,user=empire,password=secret,host=db.internal,db_name=empire.
func DatabaseURL(input string) (any, error) {
	kv := make(map[string]any)
	for _, pair := range strings.Split(input, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		kv[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	for _, required := range []string{"provider", "user", "password", "host", "db_name"} {
		if _, ok := kv[required]; !ok {
			return nil, fmt.Errorf("%s: %w", required, blueprint.ErrMissingRequired)
		}
	}
	var args databaseURLArgs
	if err := blueprint.DecodeValue(kv, &args); err != nil {
		return nil, err
	}
	return empire.DatabaseURL(args.Provider, args.User, args.Password, args.Host, args.DBName), nil
}
