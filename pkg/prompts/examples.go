package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Example is a question/SQL pair used as few-shot material in the generation
// prompt.
type Example struct {
	Question string `yaml:"question"`
	SQL      string `yaml:"sql"`
}

type exampleFile struct {
	Examples []Example `yaml:"examples"`
}

// LoadExamples reads few-shot examples from a YAML file. A missing file is
// not an error; prompts simply carry no examples.
func LoadExamples(path string) ([]Example, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read examples file: %w", err)
	}

	var file exampleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse examples file: %w", err)
	}

	valid := make([]Example, 0, len(file.Examples))
	for _, ex := range file.Examples {
		if ex.Question == "" || ex.SQL == "" {
			continue
		}
		valid = append(valid, ex)
	}
	return valid, nil
}
