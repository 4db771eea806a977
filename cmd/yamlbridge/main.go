// yamlbridge is the helper process behind the ModernText format.
// It is invoked as:
//
//	yamlbridge <input> <mode>
//
// With mode "decode", input is a YAML file and the canonical
// intermediate (an XML plist) is printed on stdout. With mode
// "encode", input is an XML plist file and YAML is printed on stdout.
// Exit code 0 signals success; anything else signals failure with
// diagnostics on stderr.
package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/repoform/repoform/pkg/document"
)

const (
	maxInputSize = 5 * 1024 * 1024

	// Pre-checks: a handful of absurdly long lines early in the file
	// means the input is not a hand-maintained document and parsing
	// it would only burn memory.
	maxLineLength  = 20000
	lineCheckCount = 50
	lineCheckBytes = 100 * 1024
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: yamlbridge <input> <mode>")
		fmt.Fprintln(os.Stderr, "  mode: decode, encode")
		os.Exit(1)
	}
	input, mode := os.Args[1], strings.ToLower(os.Args[2])

	var out []byte
	var err error
	switch mode {
	case "decode":
		out, err = decode(input)
	case "encode":
		out, err = encode(input)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported mode %q\n", mode)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	_, _ = os.Stdout.Write(out)
}

func readInput(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if info.Size() > maxInputSize {
		return nil, fmt.Errorf("input file too large (%d bytes)", info.Size())
	}
	return os.ReadFile(path)
}

func decode(path string) ([]byte, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if err := checkLineLengths(data); err != nil {
		return nil, err
	}

	if bytes.ContainsRune(data, '\t') {
		fmt.Fprintln(os.Stderr, "Warning: converting tabs to spaces")
		data = bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
	}

	var parsed interface{}
	if err := yaml.UnmarshalWithOptions(data, &parsed, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("reading YAML file: %v", err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("empty YAML document")
	}

	node, err := nodeFromYAML(parsed)
	if err != nil {
		return nil, err
	}
	return document.SerializePlist(node)
}

func encode(path string) ([]byte, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	node, err := document.ParsePlist(data)
	if err != nil {
		return nil, fmt.Errorf("reading plist file: %v", err)
	}
	out, err := yaml.Marshal(yamlFromNode(node))
	if err != nil {
		return nil, fmt.Errorf("converting to YAML: %v", err)
	}
	return out, nil
}

// checkLineLengths scans the start of the file for pathologically
// long lines before handing anything to the parser.
func checkLineLengths(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	seen, lines := 0, 0
	for scanner.Scan() {
		lines++
		line := scanner.Text()
		if len(line) > maxLineLength {
			return fmt.Errorf("YAML contains very long line (%d chars) at line %d", len(line), lines)
		}
		seen += len(line) + 1
		if lines >= lineCheckCount || seen > lineCheckBytes {
			break
		}
	}
	return nil
}

// plistDateLayout matches what the property-list serializer emits for
// dates.
const plistDateLayout = "2006-01-02T15:04:05Z"

// parseTimestamp reports whether s is a timestamp-shaped scalar.
// PyYAML resolves such strings to timestamps implicitly; doing the
// same here keeps dates as dates across a YAML round trip.
func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(plistDateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// binaryValue renders a Data scalar as a base64 !!binary node, the
// tag both PyYAML and goccy resolve back to raw bytes.
type binaryValue []byte

func (b binaryValue) MarshalYAML() ([]byte, error) {
	return []byte("!!binary " + base64.StdEncoding.EncodeToString(b)), nil
}

// nodeFromYAML converts goccy's ordered decode result into a
// canonical tree. YAML nulls have no plist counterpart and become
// empty strings, with a warning on stderr.
func nodeFromYAML(v interface{}) (*document.Node, error) {
	switch val := v.(type) {
	case yaml.MapSlice:
		dict := document.NewDict()
		for _, item := range val {
			child, err := nodeFromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			dict.Set(fmt.Sprint(item.Key), child)
		}
		return dict, nil
	case []interface{}:
		arr := document.NewArray()
		for _, item := range val {
			child, err := nodeFromYAML(item)
			if err != nil {
				return nil, err
			}
			arr.Append(child)
		}
		return arr, nil
	case string:
		if t, ok := parseTimestamp(val); ok {
			return document.Date(t), nil
		}
		return document.String(val), nil
	case bool:
		return document.Bool(val), nil
	case int:
		return document.Int(int64(val)), nil
	case int64:
		return document.Int(val), nil
	case uint64:
		return document.Int(int64(val)), nil
	case float32:
		return document.Float(float64(val)), nil
	case float64:
		return document.Float(val), nil
	case []byte:
		return document.Data(val), nil
	case time.Time:
		return document.Date(val), nil
	case nil:
		fmt.Fprintln(os.Stderr, "Warning: replaced null value with empty string")
		return document.String(""), nil
	default:
		return nil, fmt.Errorf("unsupported YAML value type %T", v)
	}
}

func yamlFromNode(n *document.Node) interface{} {
	switch n.Kind {
	case document.DictKind:
		out := make(yaml.MapSlice, 0, n.Len())
		for _, key := range n.Keys {
			child, _ := n.Get(key)
			out = append(out, yaml.MapItem{Key: key, Value: yamlFromNode(child)})
		}
		return out
	case document.ArrayKind:
		out := make([]interface{}, 0, len(n.Items))
		for _, item := range n.Items {
			out = append(out, yamlFromNode(item))
		}
		return out
	case document.StringKind:
		return n.Str
	case document.IntKind:
		return n.Int
	case document.FloatKind:
		return n.Float
	case document.BoolKind:
		return n.Bool
	case document.DataKind:
		return binaryValue(n.Data)
	case document.DateKind:
		return n.Date.UTC().Format(plistDateLayout)
	default:
		return nil
	}
}
