package scaffold

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"envcheck/internal/schema"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrVariableExists is returned when the schema already declares the name
var ErrVariableExists = errors.New("variable already declared in schema")

// AppendEnvVariable appends "# <description>" and "<NAME>=<value>" to the
// entry's env file under dir, creating the file if needed.
func AppendEnvVariable(dir string, e Entry) (string, error) {
	for _, text := range []string{e.Name, e.Value, e.Description} {
		if strings.ContainsAny(text, "\r\n") {
			return "", errors.Errorf("%q spans several lines", text)
		}
	}
	path := filepath.Join(dir, e.EnvFile)

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}

	var buf bytes.Buffer
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("# " + e.Description + "\n")
	buf.WriteString(e.Name + "=" + e.Value + "\n")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

// AddToSchema inserts the entry's descriptor as the first variable of the
// schema at path. Comments and the rest of the file are kept. A missing or
// empty file is created.
func AddToSchema(path string, e Entry) error {
	v, err := e.Variable()
	if err != nil {
		return errors.Wrapf(err, "variable '%s'", e.Name)
	}
	valueNode, err := schema.EncodeVariable(v)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to read schema")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return errors.Wrap(err, "invalid YAML")
	}

	vars, err := variablesNode(&doc)
	if err != nil {
		return errors.Wrapf(err, "schema %s", path)
	}

	for i := 0; i+1 < len(vars.Content); i += 2 {
		if vars.Content[i].Value == v.Name {
			return errors.Wrapf(ErrVariableExists, "'%s'", v.Name)
		}
	}
	vars.Content = append([]*yaml.Node{schema.KeyNode(v.Name), valueNode}, vars.Content...)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, "failed to encode schema")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "failed to encode schema")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return errors.Wrapf(os.WriteFile(path, out.Bytes(), 0644), "failed to write %s", path)
}

// variablesNode returns the mapping under the top-level "variables" key,
// creating the document, the key or the mapping as needed.
func variablesNode(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: top level must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "variables" {
			continue
		}
		vars := root.Content[i+1]
		if vars.Kind == yaml.ScalarNode && vars.Tag == "!!null" {
			*vars = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		if vars.Kind != yaml.MappingNode {
			return nil, errors.Errorf("line %d: 'variables' must be a mapping", vars.Line)
		}
		return vars, nil
	}

	vars := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	root.Content = append(root.Content, schema.KeyNode("variables"), vars)
	return vars, nil
}
