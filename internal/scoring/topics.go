// Package scoring runs the four-topic research and scoring pass and the
// final synthesis stage for a single company.
package scoring

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/odysseus/internal/model"
)

//go:embed topics.yaml
var topicsYAML []byte

// companyToken is the placeholder substituted into queries and prompts.
const companyToken = "{company}"

// TopicSpec is one scoring dimension: its search queries and the rubric
// prompt the LLM scores against.
type TopicSpec struct {
	Key     model.Topic `yaml:"key"`
	Queries []string    `yaml:"queries"`
	Prompt  string      `yaml:"prompt"`
}

type topicsFile struct {
	Topics []TopicSpec `yaml:"topics"`
}

var topicSpecs = mustLoadTopics()

func mustLoadTopics() []TopicSpec {
	var f topicsFile
	if err := yaml.Unmarshal(topicsYAML, &f); err != nil {
		panic(fmt.Sprintf("scoring: parse embedded topics.yaml: %v", err))
	}
	if len(f.Topics) != len(model.Topics) {
		panic(fmt.Sprintf("scoring: topics.yaml defines %d topics, want %d", len(f.Topics), len(model.Topics)))
	}
	return f.Topics
}

// TopicSpecs returns the embedded topic definitions in canonical order.
func TopicSpecs() []TopicSpec {
	return topicSpecs
}

// RenderQueries substitutes the company name into the topic's search queries.
func (t TopicSpec) RenderQueries(companyName string) []string {
	out := make([]string, len(t.Queries))
	for i, q := range t.Queries {
		out[i] = strings.ReplaceAll(q, companyToken, companyName)
	}
	return out
}

// RenderPrompt assembles the full scoring prompt for the topic. The size
// topic additionally grounds on the raw dossier JSON.
func (t TopicSpec) RenderPrompt(companyName, transcript, dossierJSON string) string {
	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(t.Prompt, companyToken, companyName))
	fmt.Fprintf(&sb, "\n\n**Company Name:** %s\n**Research Transcript:**\n%s", companyName, transcript)
	if t.Key == model.TopicSize {
		fmt.Fprintf(&sb, "\n**Dossier:** %s", dossierJSON)
	}
	return sb.String()
}
