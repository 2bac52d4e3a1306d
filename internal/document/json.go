package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// writeJSON emits n as indented JSON, keeping mapping key order.
func writeJSON(buf *bytes.Buffer, n *yaml.Node, indent string, depth int) error {
	n = resolveAlias(n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0], indent, depth)

	case yaml.MappingNode:
		if len(n.Content) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{")
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
			buf.WriteString(strings.Repeat(indent, depth+1))
			writeString(buf, n.Content[i].Value)
			buf.WriteString(": ")
			if err := writeJSON(buf, n.Content[i+1], indent, depth+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		buf.WriteString(strings.Repeat(indent, depth))
		buf.WriteString("}")
		return nil

	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[")
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
			buf.WriteString(strings.Repeat(indent, depth+1))
			if err := writeJSON(buf, item, indent, depth+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		buf.WriteString(strings.Repeat(indent, depth))
		buf.WriteString("]")
		return nil

	case yaml.ScalarNode:
		return writeScalar(buf, n)
	}
	return fmt.Errorf("line %d: cannot represent node kind %d as JSON", n.Line, n.Kind)
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
	case "!!int", "!!float":
		if isJSONNumber(n.Value) {
			buf.WriteString(n.Value)
			return nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(out)
	default:
		writeString(buf, n.Value)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	buf.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	var v json.Number
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return false
	}
	return true
}
