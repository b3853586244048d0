package schema

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the schema file looked up by LoadSchema
const DefaultFileName = "envschema.yaml"

// schemaFile represents the YAML file structure. Variables is kept as a node
// so declaration order survives parsing.
type schemaFile struct {
	Variables yaml.Node `yaml:"variables"`
}

// variableEntry represents a single variable entry in YAML
type variableEntry struct {
	Type         string      `yaml:"type"`
	Required     bool        `yaml:"required"`
	Environments *[]string   `yaml:"environments,omitempty"`
	Message      string      `yaml:"message,omitempty"`
	Default      yaml.Node   `yaml:"default,omitempty"`
	Allowed      []yaml.Node `yaml:"allowed,omitempty"`
}

// ParseSchema parses YAML content into a Schema, keeping declaration order
func ParseSchema(content []byte) (Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(content, &sf); err != nil {
		return Schema{}, errors.Wrap(err, "invalid YAML")
	}

	if sf.Variables.Kind == 0 {
		return Schema{}, errors.New("missing required section 'variables'")
	}
	if sf.Variables.Kind != yaml.MappingNode {
		return Schema{}, errors.Errorf("line %d: 'variables' must be a mapping", sf.Variables.Line)
	}

	s := Schema{Variables: []Variable{}}
	seen := make(map[string]bool)

	pairs := sf.Variables.Content
	for i := 0; i+1 < len(pairs); i += 2 {
		keyNode, valueNode := pairs[i], pairs[i+1]
		name := keyNode.Value

		if name == "" {
			return Schema{}, errors.Errorf("line %d: empty variable name", keyNode.Line)
		}
		if seen[name] {
			return Schema{}, errors.Errorf("duplicate variable: '%s'", name)
		}
		seen[name] = true

		v, err := parseVariable(name, valueNode)
		if err != nil {
			return Schema{}, err
		}
		s.Variables = append(s.Variables, v)
	}

	return s, nil
}

func parseVariable(name string, node *yaml.Node) (Variable, error) {
	if node.Kind != yaml.MappingNode {
		return Variable{}, errors.Errorf("variable '%s': expected a mapping", name)
	}

	var entry variableEntry
	if err := node.Decode(&entry); err != nil {
		return Variable{}, errors.Wrapf(err, "variable '%s'", name)
	}

	v := Variable{
		Name:     name,
		Type:     VarType(entry.Type),
		Required: entry.Required,
		Message:  entry.Message,
	}

	if entry.Environments != nil {
		v.Environments = append([]string{}, (*entry.Environments)...)
	}

	if entry.Default.Kind != 0 {
		value, err := decodeScalar(&entry.Default)
		if err != nil {
			return Variable{}, errors.Wrapf(err, "variable '%s': default", name)
		}
		v.Default = value
		v.HasDefault = true
	}

	if len(entry.Allowed) > 0 {
		v.Allowed = make([]any, 0, len(entry.Allowed))
		for i := range entry.Allowed {
			value, err := decodeScalar(&entry.Allowed[i])
			if err != nil {
				return Variable{}, errors.Wrapf(err, "variable '%s': allowed[%d]", name, i)
			}
			v.Allowed = append(v.Allowed, value)
		}
	}

	return v, nil
}

// decodeScalar decodes a primitive YAML value, numbers become float64
func decodeScalar(node *yaml.Node) (any, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, errors.Errorf("line %d: expected a string, number or boolean", node.Line)
	}
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	return Normalize(value), nil
}

// EncodeVariable renders a single descriptor as a YAML mapping node
func EncodeVariable(v Variable) (*yaml.Node, error) {
	entry := variableEntry{
		Type:     string(v.Type),
		Required: v.Required,
		Message:  v.Message,
	}

	if v.Environments != nil {
		envs := append([]string{}, v.Environments...)
		entry.Environments = &envs
	}

	if v.HasDefault {
		if err := entry.Default.Encode(v.Default); err != nil {
			return nil, errors.Wrapf(err, "variable '%s': default", v.Name)
		}
	}

	for i, allowed := range v.Allowed {
		var n yaml.Node
		if err := n.Encode(allowed); err != nil {
			return nil, errors.Wrapf(err, "variable '%s': allowed[%d]", v.Name, i)
		}
		entry.Allowed = append(entry.Allowed, n)
	}

	var node yaml.Node
	if err := node.Encode(&entry); err != nil {
		return nil, errors.Wrapf(err, "variable '%s'", v.Name)
	}
	return &node, nil
}

// ToYAML serializes a Schema back to YAML bytes
func (s Schema) ToYAML() ([]byte, error) {
	vars := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, v := range s.Variables {
		valueNode, err := EncodeVariable(v)
		if err != nil {
			return nil, err
		}
		vars.Content = append(vars.Content, KeyNode(v.Name), valueNode)
	}

	root := &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: []*yaml.Node{KeyNode("variables"), vars},
	}

	return yaml.Marshal(root)
}

// KeyNode returns a plain string scalar node for use as a mapping key
func KeyNode(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

// LoadSchema reads and parses envschema.yaml from the given directory
func LoadSchema(dir string) (Schema, error) {
	return LoadSchemaFromPath(filepath.Join(dir, DefaultFileName))
}

// LoadSchemaFromPath reads and parses a schema from the given file path.
// A missing file yields an error matching fs.ErrNotExist.
func LoadSchemaFromPath(path string) (Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, errors.Wrap(err, "failed to read schema")
	}

	s, err := ParseSchema(content)
	if err != nil {
		return Schema{}, errors.Wrapf(err, "failed to parse schema %s", path)
	}
	return s, nil
}
