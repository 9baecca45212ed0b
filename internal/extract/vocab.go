package extract

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ork-ai/orkhooks/internal/logging"
)

// Vocabulary holds the known-entity names the extractor matches against.
// Matching is whole-word and case-insensitive.
type Vocabulary struct {
	Agents       []string `yaml:"agents"`
	Technologies []string `yaml:"technologies"`
	Patterns     []string `yaml:"patterns"`

	matchers []entityMatcher
}

type entityMatcher struct {
	name string
	re   *regexp.Regexp
}

var builtinVocabulary = Vocabulary{
	Agents: []string{
		"orchestrator", "planner", "architect", "reviewer",
		"implementer", "researcher", "tester", "documenter",
	},
	Technologies: []string{
		"go", "typescript", "python", "rust", "node",
		"postgresql", "postgres", "sqlite", "redis", "kafka",
		"docker", "kubernetes", "terraform", "nginx",
		"graphql", "grpc", "rest", "websocket",
		"react", "vite", "webpack", "jest", "vitest", "pytest",
		"aws", "gcp", "azure", "github actions",
	},
	Patterns: []string{
		"singleton", "factory", "repository", "adapter", "facade",
		"middleware", "dependency injection", "event sourcing", "cqrs",
		"pub/sub", "circuit breaker", "saga", "monorepo", "microservices",
		"hexagonal architecture", "strangler fig",
	},
}

// VocabularyFile is the optional per-project overlay, relative to the
// project's .ork directory.
const VocabularyFile = "vocabulary.yaml"

// LoadVocabulary returns the built-in vocabulary merged with the project
// overlay when one exists. A missing or malformed overlay file is ignored.
func LoadVocabulary(projectDir string) Vocabulary {
	vocab := builtinVocabulary

	if projectDir != "" {
		path := filepath.Join(projectDir, ".ork", VocabularyFile)
		if data, err := os.ReadFile(path); err == nil {
			var overlay Vocabulary
			if err := yaml.Unmarshal(data, &overlay); err != nil {
				logging.Warn().Err(err).Str("path", path).Msg("Ignoring malformed vocabulary overlay")
			} else {
				vocab.Agents = append(vocab.Agents, overlay.Agents...)
				vocab.Technologies = append(vocab.Technologies, overlay.Technologies...)
				vocab.Patterns = append(vocab.Patterns, overlay.Patterns...)
			}
		}
	}

	vocab.compile()
	return vocab
}

// compile builds one whole-word matcher per name, deduplicated.
func (v *Vocabulary) compile() {
	seen := make(map[string]bool)
	for _, group := range [][]string{v.Agents, v.Technologies, v.Patterns} {
		for _, name := range group {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
			if err != nil {
				continue
			}
			v.matchers = append(v.matchers, entityMatcher{name: name, re: re})
		}
	}
}

// KindOf reports which vocabulary group a name belongs to: agent,
// technology, or pattern, with concept as the fallback.
func (v *Vocabulary) KindOf(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range v.Agents {
		if strings.ToLower(a) == name {
			return "agent"
		}
	}
	for _, t := range v.Technologies {
		if strings.ToLower(t) == name {
			return "technology"
		}
	}
	for _, p := range v.Patterns {
		if strings.ToLower(p) == name {
			return "pattern"
		}
	}
	return "concept"
}

// MatchEntities returns the vocabulary names present in text, in
// vocabulary order, each at most once.
func (v *Vocabulary) MatchEntities(text string) []string {
	if len(v.matchers) == 0 {
		v.compile()
	}
	lower := strings.ToLower(text)

	var found []string
	for _, m := range v.matchers {
		if m.re.MatchString(lower) {
			found = append(found, m.name)
		}
	}
	return found
}
