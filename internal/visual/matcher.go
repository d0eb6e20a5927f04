package visual

import (
	"encoding/json"
	"fmt"
)

// Spec is a student's stored visual password. The populated fields depend on
// Type; for a valid spec exactly one catalog option id equals CorrectAnswer.
type Spec struct {
	Type   Type   `json:"type"`
	Animal string `json:"animal,omitempty"`
	Object string `json:"object,omitempty"`
	Color  string `json:"color,omitempty"`
	Shape  string `json:"shape,omitempty"`
}

// ParseSpec decodes a stored JSON spec and validates it against the catalog.
func ParseSpec(raw []byte) (Spec, error) {
	var spec Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return Spec{}, fmt.Errorf("visual: invalid spec json: %w", err)
	}
	if err := Validate(spec); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// CorrectAnswer derives the single option id a spec accepts. Color and shape
// join as "<color>-<shape>"; both sides of a comparison rely on this exact
// rule, so it must never change shape.
func CorrectAnswer(spec Spec) (string, error) {
	switch spec.Type {
	case TypeAnimal:
		if spec.Animal == "" {
			return "", fmt.Errorf("visual: animal spec missing animal")
		}
		return spec.Animal, nil
	case TypeObject:
		if spec.Object == "" {
			return "", fmt.Errorf("visual: object spec missing object")
		}
		return spec.Object, nil
	case TypeColorShape:
		if spec.Color == "" || spec.Shape == "" {
			return "", fmt.Errorf("visual: color_shape spec missing color or shape")
		}
		return spec.Color + "-" + spec.Shape, nil
	default:
		return "", fmt.Errorf("visual: unknown password type %q", spec.Type)
	}
}

// Matches reports whether a submitted selection is the spec's correct answer.
// Malformed specs never match.
func Matches(spec Spec, selected string) bool {
	answer, err := CorrectAnswer(spec)
	if err != nil {
		return false
	}
	return selected == answer
}

// Validate checks that a spec is well formed and that its correct answer is
// present in the catalog for its type.
func Validate(spec Spec) error {
	answer, err := CorrectAnswer(spec)
	if err != nil {
		return err
	}
	for _, option := range Options(spec.Type) {
		if option.ID == answer {
			return nil
		}
	}
	return fmt.Errorf("visual: answer %q not in %s catalog", answer, spec.Type)
}
