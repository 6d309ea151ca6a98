package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// decode parses a YAML document into the concrete type for its layer and
// validates it. Unknown fields are rejected so a typo in a schema file fails
// at load time instead of silently dropping data.
func decode(layer Layer, data []byte) (Document, error) {
	var doc Document
	switch layer {
	case LayerClassification:
		doc = &ClassificationSchema{}
	case LayerBehavior:
		doc = &BehaviorSchema{}
	case LayerTaxonomy:
		doc = &TaxonomySchema{}
	default:
		return nil, fmt.Errorf("unknown layer %q", layer)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := validate.Struct(doc); err != nil {
		return nil, err
	}

	switch d := doc.(type) {
	case *ClassificationSchema:
		if err := checkClassification(d); err != nil {
			return nil, err
		}
	case *BehaviorSchema:
		if err := checkBehavior(d); err != nil {
			return nil, err
		}
	case *TaxonomySchema:
		if err := normalizeTaxonomy(d); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func checkClassification(s *ClassificationSchema) error {
	if len(s.IntentMap) == 0 {
		return errors.New("intentMap must not be empty")
	}
	for intent, category := range s.IntentMap {
		if strings.TrimSpace(intent) == "" || strings.TrimSpace(category) == "" {
			return fmt.Errorf("intentMap entry %q -> %q has an empty side", intent, category)
		}
	}
	for group, words := range s.Keywords {
		if strings.TrimSpace(group) == "" {
			return errors.New("keyword group name must not be empty")
		}
		for _, w := range words {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("keyword group %q contains an empty keyword", group)
			}
		}
	}
	for _, c := range s.AutoReply.EnabledCategories {
		if strings.TrimSpace(c) == "" {
			return errors.New("autoReply.enabledCategories contains an empty category")
		}
	}
	return nil
}

func checkBehavior(s *BehaviorSchema) error {
	for category, text := range s.CategoryOverrides {
		if strings.TrimSpace(category) == "" || strings.TrimSpace(text) == "" {
			return fmt.Errorf("categoryOverrides entry %q has an empty side", category)
		}
	}
	return nil
}

// normalizeTaxonomy attaches flat nodes declared with parentName under their
// parent, then checks sibling uniqueness and dynamic template shape.
func normalizeTaxonomy(s *TaxonomySchema) error {
	var roots, detached []*TaxonomyNode
	for _, n := range s.Nodes {
		if strings.TrimSpace(n.ParentName) == "" {
			roots = append(roots, n)
		} else {
			detached = append(detached, n)
		}
	}
	for _, n := range detached {
		parent := findDeep(roots, Canonical(n.ParentName))
		if parent == nil {
			return fmt.Errorf("node %q references unknown parent %q", n.Name, n.ParentName)
		}
		parent.Children = append(parent.Children, n)
	}
	s.Nodes = roots
	return checkNodes(s.Nodes, "")
}

func findDeep(nodes []*TaxonomyNode, canonical string) *TaxonomyNode {
	for _, n := range nodes {
		if Canonical(n.Name) == canonical {
			return n
		}
		if found := findDeep(n.Children, canonical); found != nil {
			return found
		}
	}
	return nil
}

func checkNodes(nodes []*TaxonomyNode, parent string) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		c := Canonical(n.Name)
		if c == "" {
			return fmt.Errorf("node under %q has an empty name", parent)
		}
		if seen[c] {
			return fmt.Errorf("duplicate sibling %q under %q", n.Name, parent)
		}
		seen[c] = true
		n.ParentName = parent

		if n.DynamicTemplate {
			if !n.DynamicSource.Valid() {
				return fmt.Errorf("dynamic node %q has unknown source %q", n.Name, n.DynamicSource)
			}
			if len(n.Children) > 0 {
				return fmt.Errorf("dynamic node %q must be a leaf", n.Name)
			}
			if parent == "" {
				return fmt.Errorf("dynamic node %q must have a parent", n.Name)
			}
		}
		if err := checkNodes(n.Children, n.Name); err != nil {
			return err
		}
	}
	return nil
}
