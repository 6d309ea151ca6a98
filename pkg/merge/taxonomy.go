package merge

import (
	"fmt"
	"sort"
	"strings"

	"email-onboarding-be/pkg/schema"
)

// PathSeparator joins node names into the full path used as a stable key.
const PathSeparator = "/"

type MergedTaxonomy struct {
	Nodes []*schema.TaxonomyNode `json:"nodes"`
}

// NodeVisit is a node seen during a walk, together with its position.
type NodeVisit struct {
	Node       *schema.TaxonomyNode
	Path       string
	ParentPath string
	Depth      int
}

// Walk visits every node depth-first, parents before children.
func (t *MergedTaxonomy) Walk(fn func(NodeVisit) error) error {
	var walk func(nodes []*schema.TaxonomyNode, parent string, depth int) error
	walk = func(nodes []*schema.TaxonomyNode, parent string, depth int) error {
		for _, n := range nodes {
			v := NodeVisit{Node: n, Path: JoinPath(parent, n.Name), ParentPath: parent, Depth: depth}
			if err := fn(v); err != nil {
				return err
			}
			if err := walk(n.Children, v.Path, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.Nodes, "", 0)
}

// Levels groups nodes by depth. Level i only holds children of level i-1.
func (t *MergedTaxonomy) Levels() [][]NodeVisit {
	var levels [][]NodeVisit
	_ = t.Walk(func(v NodeVisit) error {
		for len(levels) <= v.Depth {
			levels = append(levels, nil)
		}
		levels[v.Depth] = append(levels[v.Depth], v)
		return nil
	})
	return levels
}

func (t *MergedTaxonomy) Count() int {
	n := 0
	_ = t.Walk(func(NodeVisit) error { n++; return nil })
	return n
}

// Find returns the node at a full path, comparing segments canonically.
func (t *MergedTaxonomy) Find(path string) *schema.TaxonomyNode {
	nodes := t.Nodes
	var found *schema.TaxonomyNode
	for _, segment := range strings.Split(path, PathSeparator) {
		found = nil
		for _, n := range nodes {
			if schema.Canonical(n.Name) == schema.Canonical(segment) {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		nodes = found.Children
	}
	return found
}

func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

func sortTaxonomy(schemas []*schema.TaxonomySchema) []*schema.TaxonomySchema {
	out := append([]*schema.TaxonomySchema(nil), schemas...)
	sort.SliceStable(out, func(i, j int) bool {
		return schema.Slug(out[i].BusinessType()) < schema.Slug(out[j].BusinessType())
	})
	return out
}

type taxonomyMerger struct {
	colorOwner map[string]string
	warnings   []Warning
}

// MergeTaxonomy folds N taxonomies into one tree. Categories present in every
// schema come first, categories unique to some schemas follow. Dynamic
// templates are expanded from the tenant profile after merging.
func MergeTaxonomy(schemas []*schema.TaxonomySchema, tenant *TenantProfile) (*MergedTaxonomy, []Warning) {
	sorted := sortTaxonomy(schemas)
	m := &taxonomyMerger{colorOwner: make(map[string]string)}

	presence := make(map[string]int)
	for _, s := range sorted {
		for _, n := range s.Nodes {
			presence[schema.Canonical(n.Name)]++
		}
	}

	var roots []*schema.TaxonomyNode
	for _, s := range sorted {
		roots = m.mergeLevel(roots, s.Nodes, "", s.BusinessType())
	}

	var standard, unique []*schema.TaxonomyNode
	for _, n := range roots {
		if presence[schema.Canonical(n.Name)] == len(sorted) {
			standard = append(standard, n)
		} else {
			unique = append(unique, n)
		}
	}
	roots = append(standard, unique...)

	if tenant == nil {
		tenant = &TenantProfile{}
	}
	roots = m.expand(roots, "", tenant)
	setParents(roots, "")

	if roots == nil {
		roots = []*schema.TaxonomyNode{}
	}
	return &MergedTaxonomy{Nodes: roots}, m.warnings
}

func (m *taxonomyMerger) mergeLevel(dst, src []*schema.TaxonomyNode, parentPath, businessType string) []*schema.TaxonomyNode {
	for _, n := range src {
		path := JoinPath(parentPath, n.Name)
		existing := findCanonical(dst, n.Name)
		if existing == nil {
			c := *n
			if c.Color != "" {
				m.colorOwner[schema.Canonical(path)] = businessType
			}
			c.Children = m.mergeLevel(nil, n.Children, path, businessType)
			dst = append(dst, &c)
			continue
		}

		existingPath := JoinPath(parentPath, existing.Name)
		switch {
		case existing.Color == "" && n.Color != "":
			existing.Color = n.Color
			m.colorOwner[schema.Canonical(existingPath)] = businessType
		case existing.Color != "" && n.Color != "" && !strings.EqualFold(existing.Color, n.Color):
			m.warnings = append(m.warnings, Warning{
				Code:    WarnColorConflict,
				Subject: existingPath,
				Message: fmt.Sprintf("%s uses %s, %s uses %s; keeping %s",
					m.colorOwner[schema.Canonical(existingPath)], existing.Color, businessType, n.Color, existing.Color),
			})
		}
		existing.Children = m.mergeLevel(existing.Children, n.Children, existingPath, businessType)
	}
	return dst
}

// expand replaces every dynamic template with one leaf per tenant entry.
// Entries that collide with an existing sibling collapse into it.
func (m *taxonomyMerger) expand(nodes []*schema.TaxonomyNode, parentPath string, tenant *TenantProfile) []*schema.TaxonomyNode {
	var statics, templates []*schema.TaxonomyNode
	for _, n := range nodes {
		if n.DynamicTemplate {
			templates = append(templates, n)
		} else {
			statics = append(statics, n)
		}
	}

	out := statics
	for _, n := range statics {
		n.Children = m.expand(n.Children, JoinPath(parentPath, n.Name), tenant)
	}

	for _, tpl := range templates {
		entries := dynamicEntries(tpl.DynamicSource, tenant)
		if len(entries) == 0 {
			m.warnings = append(m.warnings, Warning{
				Code:    WarnEmptyDynamicSource,
				Subject: parentPath,
				Message: fmt.Sprintf("no %s supplied; %q has no generated entries", tpl.DynamicSource, parentPath),
			})
			continue
		}
		for _, name := range entries {
			if findCanonical(out, name) != nil {
				continue
			}
			out = append(out, &schema.TaxonomyNode{
				Name:     name,
				Color:    tpl.Color,
				Expanded: true,
			})
		}
	}
	return out
}

func dynamicEntries(source schema.DynamicSource, tenant *TenantProfile) []string {
	var raw []string
	switch source {
	case schema.SourceTeamMembers:
		for _, member := range tenant.TeamMembers {
			raw = append(raw, member.Name)
		}
	case schema.SourceVendors:
		for _, vendor := range tenant.Vendors {
			raw = append(raw, vendor.DisplayName())
		}
	}

	var out []string
	for _, name := range raw {
		name = strings.TrimSpace(strings.ReplaceAll(name, PathSeparator, "-"))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func findCanonical(nodes []*schema.TaxonomyNode, name string) *schema.TaxonomyNode {
	c := schema.Canonical(name)
	for _, n := range nodes {
		if schema.Canonical(n.Name) == c {
			return n
		}
	}
	return nil
}

func setParents(nodes []*schema.TaxonomyNode, parent string) {
	for _, n := range nodes {
		n.ParentName = parent
		setParents(n.Children, n.Name)
	}
}
