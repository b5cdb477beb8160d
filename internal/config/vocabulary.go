package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"archivum/internal/store"
)

// Vocabulary is the recommended set of relation types offered to the
// extraction model. Types outside it are still accepted.
type Vocabulary struct {
	Version       int            `yaml:"version"`
	RelationTypes []RelationType `yaml:"relation_types"`

	index map[string]*RelationType
}

type RelationType struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Inverse     string `yaml:"inverse"`
	Symmetric   bool   `yaml:"symmetric"`
}

// DefaultVocabulary is used when no vocabulary file is configured.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		Version: 1,
		RelationTypes: []RelationType{
			{Name: "located_in", Description: "an entity is situated in a place"},
			{Name: "participated_in", Description: "a person or object took part in an event"},
			{Name: "related_to", Description: "a generic association", Symmetric: true},
			{Name: "created_by", Description: "an object or concept was made by a person"},
			{Name: "mentioned_with", Description: "two entities appear together in a passage", Symmetric: true},
		},
	}
	v.buildIndex()
	return v
}

// LoadVocabulary reads a vocabulary file. An empty path yields the default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	for i := range v.RelationTypes {
		rel := &v.RelationTypes[i]
		if rel.Name != "" {
			rel.Name = store.NormalizeRelationType(rel.Name)
		}
		if rel.Inverse != "" {
			rel.Inverse = store.NormalizeRelationType(rel.Inverse)
		}
	}

	if err := validateVocabulary(&v); err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	v.buildIndex()
	return &v, nil
}

func validateVocabulary(v *Vocabulary) error {
	if v.Version != 1 {
		return fmt.Errorf("unsupported version: %d", v.Version)
	}
	if len(v.RelationTypes) == 0 {
		return fmt.Errorf("at least one relation type is required")
	}

	names := make(map[string]struct{})
	for i, rel := range v.RelationTypes {
		if rel.Name == "" {
			return fmt.Errorf("relation type %d name is required", i)
		}
		if _, exists := names[rel.Name]; exists {
			return fmt.Errorf("duplicate relation type name: %s", rel.Name)
		}
		names[rel.Name] = struct{}{}
		if rel.Symmetric && rel.Inverse != "" && rel.Inverse != rel.Name {
			return fmt.Errorf("relation type %s is symmetric but declares inverse %s", rel.Name, rel.Inverse)
		}
	}

	for _, rel := range v.RelationTypes {
		if rel.Inverse == "" {
			continue
		}
		if _, ok := names[rel.Inverse]; !ok {
			return fmt.Errorf("relation type %s references unknown inverse: %s", rel.Name, rel.Inverse)
		}
	}

	return nil
}

func (v *Vocabulary) buildIndex() {
	v.index = make(map[string]*RelationType, len(v.RelationTypes))
	for i := range v.RelationTypes {
		rel := &v.RelationTypes[i]
		v.index[rel.Name] = rel
	}
}

// Names returns the relation type names in file order.
func (v *Vocabulary) Names() []string {
	if v == nil {
		return []string{}
	}
	names := make([]string, 0, len(v.RelationTypes))
	for _, rel := range v.RelationTypes {
		names = append(names, rel.Name)
	}
	return names
}

func (v *Vocabulary) Lookup(name string) (*RelationType, bool) {
	if v == nil {
		return nil, false
	}
	rel, ok := v.index[store.NormalizeRelationType(name)]
	return rel, ok
}

func (v *Vocabulary) IsRecommended(name string) bool {
	_, ok := v.Lookup(name)
	return ok
}

func (v *Vocabulary) IsSymmetric(name string) bool {
	rel, ok := v.Lookup(name)
	return ok && rel.Symmetric
}
