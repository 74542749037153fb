package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy bundles the prompt and sampling parameters used for analysis.
type Policy struct {
	Prompt *PromptTemplate
	Params GenerationParams
}

type policyFile struct {
	PromptTemplate string           `yaml:"prompt_template"`
	Generation     GenerationParams `yaml:"generation"`
}

// DefaultPolicy returns the built-in prompt and sampling parameters.
func DefaultPolicy() Policy {
	return Policy{Prompt: DefaultPrompt(), Params: DefaultGenerationParams()}
}

// LoadPolicy reads a YAML policy file. Keys absent from the file keep their
// default values. An empty path returns DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes a YAML policy document over the defaults.
func ParsePolicy(raw []byte) (Policy, error) {
	file := policyFile{Generation: DefaultGenerationParams()}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}

	policy := DefaultPolicy()
	policy.Params = file.Generation
	if policy.Params.StopSequences == nil {
		policy.Params.StopSequences = []string{}
	}
	if err := validateParams(policy.Params); err != nil {
		return Policy{}, err
	}
	if strings.TrimSpace(file.PromptTemplate) != "" {
		prompt, err := ParsePrompt(file.PromptTemplate)
		if err != nil {
			return Policy{}, err
		}
		policy.Prompt = prompt
	}
	return policy, nil
}

func validateParams(p GenerationParams) error {
	switch {
	case strings.TrimSpace(p.DecodingMethod) == "":
		return fmt.Errorf("policy: decoding_method is required")
	case p.MaxNewTokens <= 0:
		return fmt.Errorf("policy: max_new_tokens must be positive")
	case p.MinNewTokens < 0 || p.MinNewTokens > p.MaxNewTokens:
		return fmt.Errorf("policy: min_new_tokens must be between 0 and max_new_tokens")
	case p.TopP < 0 || p.TopP > 1:
		return fmt.Errorf("policy: top_p must be within [0, 1]")
	}
	return nil
}
