package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var ErrNoFilePath = errors.New("no file path provided")

// LoadAndParseYaml loads the optional .env files, then the YAML file, into the
// environment and fills cfg from `env` / `default` struct tags.
// Variables that are already set always win.
func LoadAndParseYaml(filepath string, cfg any, dotenv ...string) error {
	if err := LoadDotEnv(dotenv...); err != nil {
		return err
	}

	if err := LoadYamlFile(filepath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return ParseEnv(cfg)
}

// LoadDotEnv loads .env files. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("could not load %s: %w", p, err)
		}
	}
	return nil
}

// LoadYamlFile reads a YAML file and loads variables into the environment.
// Nested keys are joined with "_" and upper-cased: database.host -> DATABASE_HOST.
func LoadYamlFile(filepath string) error {
	if filepath == "" {
		return ErrNoFilePath
	}

	file, err := os.Open(filepath)
	if err != nil {
		return fmt.Errorf("could not open YAML file: %w", err)
	}
	defer file.Close()

	vars, err := flattenYAML(file)
	if err != nil {
		return err
	}

	for key, value := range vars {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("could not set env var %s: %w", key, err)
		}
	}

	return nil
}

// flattenYAML understands the subset of YAML used by config.yaml:
// nested maps of scalars with two-space indentation and ${VAR:-default} values.
func flattenYAML(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)

	var prefix []string
	indents := []int{}

	for scanner.Scan() {
		line := scanner.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))

		// leave every section that is indented at least as deep as this line
		for len(indents) > 0 && indents[len(indents)-1] >= indent {
			indents = indents[:len(indents)-1]
			prefix = prefix[:len(prefix)-1]
		}

		if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, ": ") {
			prefix = append(prefix, strings.TrimSuffix(trimmed, ":"))
			indents = append(indents, indent)
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = stripComment(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		value = expand(strings.Trim(value, `"'`))

		out[strings.ToUpper(strings.Join(append(prefix[:len(prefix):len(prefix)], key), "_"))] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}

	return out, nil
}

// expand resolves ${VAR:-default} against the environment.
func expand(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}

	inner := value[2 : len(value)-1]
	name, def, _ := strings.Cut(inner, ":-")
	if env := os.Getenv(strings.TrimSpace(name)); env != "" {
		return env
	}
	return strings.TrimSpace(def)
}

func stripComment(value string) string {
	if strings.HasPrefix(value, `"`) || strings.HasPrefix(value, `'`) {
		return value
	}
	if i := strings.Index(value, " #"); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return value
}
