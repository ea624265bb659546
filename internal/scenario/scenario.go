// Package scenario replays scripted console conversations from YAML files.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wolfman30/orch-console/internal/session"
)

// Scenario is one scripted conversation.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step performs exactly one console action. Mode defaults to the previous
// step's mode, and to ask for the first step.
type Step struct {
	Name        string       `yaml:"name"`
	Mode        session.Mode `yaml:"mode"`
	Slot        string       `yaml:"slot"`
	PostContext *PostContext `yaml:"post_context"`
	Say         string       `yaml:"say"`
	Select      *Selection   `yaml:"select"`
	Upload      []string     `yaml:"upload"`
	Expect      Expect       `yaml:"expect"`
}

// PostContext are the consultation notes a post step saves.
type PostContext struct {
	Slot  string `yaml:"slot"`
	Notes string `yaml:"notes"`
}

// Selection picks a pending option by index or by label.
type Selection struct {
	Index *int
	Label string
}

// UnmarshalYAML accepts "select: 1" and "select: Face".
func (s *Selection) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("scenario: line %d: select must be an index or a label", node.Line)
	}
	if node.ShortTag() == "!!int" {
		var i int
		if err := node.Decode(&i); err != nil {
			return err
		}
		s.Index = &i
		return nil
	}
	s.Label = node.Value
	return nil
}

// Expect lists the checks applied after a step.
type Expect struct {
	MCQ      *bool    `yaml:"mcq"`
	Terminal *bool    `yaml:"terminal"`
	Contains []string `yaml:"contains"`
	// Error is a substring the step's error must contain.
	Error string `yaml:"error"`
}

// Step action names.
const (
	ActionSlot   = "slot"
	ActionPost   = "post_context"
	ActionSay    = "say"
	ActionSelect = "select"
	ActionUpload = "upload"
)

// Action names the single action the step performs.
func (s Step) Action() (string, error) {
	var actions []string
	if s.Slot != "" {
		actions = append(actions, ActionSlot)
	}
	if s.PostContext != nil {
		actions = append(actions, ActionPost)
	}
	if s.Say != "" {
		actions = append(actions, ActionSay)
	}
	if s.Select != nil {
		actions = append(actions, ActionSelect)
	}
	if len(s.Upload) > 0 {
		actions = append(actions, ActionUpload)
	}
	switch len(actions) {
	case 0:
		return "", errors.New("scenario: step has no action")
	case 1:
		return actions[0], nil
	default:
		return "", fmt.Errorf("scenario: step has several actions: %s", strings.Join(actions, ", "))
	}
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: decode: %w", err)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, errors.New("scenario: no steps")
	}
	for i, step := range sc.Steps {
		if _, err := step.Action(); err != nil {
			return Scenario{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Mode != "" {
			mode, err := session.ParseMode(string(step.Mode))
			if err != nil {
				return Scenario{}, fmt.Errorf("step %d: %w", i+1, err)
			}
			sc.Steps[i].Mode = mode
		}
	}
	return sc, nil
}

// Load reads a scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return Scenario{}, err
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}
