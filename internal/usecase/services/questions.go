package services

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// QuestionSpec is one entry of the security-question catalog: the question
// prompt and the pattern an answer must match.
type QuestionSpec struct {
	Prompt  string
	Pattern string
}

// DefaultQuestionCatalog is used when no catalog file is configured.
func DefaultQuestionCatalog() []QuestionSpec {
	return []QuestionSpec{
		{"Mother's Maiden Name {Capitalized}", `^[A-Z][a-z]+$`},
		{"City of Birth {Capitalized}", `^[A-Z][a-z]+$`},
		{"First School {Capitalized Words}", `^[A-Z][a-z]+( [A-Z][a-z]+)*$`},
		{"First Pet's Name {Capitalized}", `^[A-Z][a-z]+$`},
		{"Favourite Colour {lowercase}", `^[a-z]+$`},
		{"Lucky Number {Digits}", `^[0-9]{1,4}$`},
	}
}

// LoadQuestionCatalog reads a catalog file with one `prompt,pattern` entry
// per line. Blank lines are skipped; every pattern must compile.
func LoadQuestionCatalog(path string) ([]QuestionSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening question catalog: %w", err)
	}
	defer f.Close()

	var specs []QuestionSpec
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		prompt, pattern, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("malformed catalog line %q", line)
		}
		pattern = strings.TrimSpace(pattern)
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("catalog pattern %q: %w", pattern, err)
		}
		specs = append(specs, QuestionSpec{Prompt: strings.TrimSpace(prompt), Pattern: pattern})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading question catalog: %w", err)
	}
	return specs, nil
}
