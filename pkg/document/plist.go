package document

import (
	"bytes"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"howett.net/plist"

	"github.com/repoform/repoform/pkg/errors"
)

// plistDocType is the DOCTYPE emitted on every serialized plist.
const plistDocType = `DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`

// plistDateFormat matches what plistlib and CFPropertyList emit.
const plistDateFormat = "2006-01-02T15:04:05Z"

var binaryPlistMagic = []byte("bplist")

// ParsePlist decodes a property list, XML or binary, into a canonical
// tree. XML plists keep their dict key order; binary plists are
// decoded with keys sorted, since the binary reader does not expose
// document order.
func ParsePlist(data []byte) (*Node, error) {
	if bytes.HasPrefix(data, binaryPlistMagic) {
		return parseBinaryPlist(data)
	}
	return parseXMLPlist(data)
}

func parseXMLPlist(data []byte) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrMalformedLegacy, "invalid plist XML")
	}
	root := doc.SelectElement("plist")
	if root == nil {
		return nil, errors.New(errors.ErrMalformedLegacy, "missing <plist> root element")
	}
	elems := root.ChildElements()
	if len(elems) != 1 {
		return nil, errors.Newf(errors.ErrMalformedLegacy,
			"expected exactly one value under <plist>, found %d", len(elems))
	}
	return nodeFromElement(elems[0])
}

func nodeFromElement(el *etree.Element) (*Node, error) {
	switch el.Tag {
	case "dict":
		return dictFromElement(el)
	case "array":
		arr := NewArray()
		for _, child := range el.ChildElements() {
			node, err := nodeFromElement(child)
			if err != nil {
				return nil, err
			}
			arr.Append(node)
		}
		return arr, nil
	case "string":
		return String(el.Text()), nil
	case "integer":
		i, err := strconv.ParseInt(strings.TrimSpace(el.Text()), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrMalformedLegacy,
				"invalid <integer> value %q", el.Text())
		}
		return Int(i), nil
	case "real":
		f, err := strconv.ParseFloat(strings.TrimSpace(el.Text()), 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrMalformedLegacy,
				"invalid <real> value %q", el.Text())
		}
		return Float(f), nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "data":
		raw := strings.Map(dropSpace, el.Text())
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrMalformedLegacy, "invalid <data> base64")
		}
		return Data(decoded), nil
	case "date":
		t, err := time.Parse(plistDateFormat, strings.TrimSpace(el.Text()))
		if err != nil {
			// Some writers emit full RFC 3339 with offsets.
			t, err = time.Parse(time.RFC3339, strings.TrimSpace(el.Text()))
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrMalformedLegacy,
					"invalid <date> value %q", el.Text())
			}
		}
		return Date(t.UTC()), nil
	default:
		return nil, errors.Newf(errors.ErrMalformedLegacy, "unknown plist element <%s>", el.Tag)
	}
}

func dictFromElement(el *etree.Element) (*Node, error) {
	dict := NewDict()
	children := el.ChildElements()
	if len(children)%2 != 0 {
		return nil, errors.New(errors.ErrMalformedLegacy, "<dict> has a key without a value")
	}
	for i := 0; i < len(children); i += 2 {
		keyEl, valEl := children[i], children[i+1]
		if keyEl.Tag != "key" {
			return nil, errors.Newf(errors.ErrMalformedLegacy,
				"expected <key> in <dict>, found <%s>", keyEl.Tag)
		}
		node, err := nodeFromElement(valEl)
		if err != nil {
			return nil, err
		}
		dict.Set(keyEl.Text(), node)
	}
	return dict, nil
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\n', '\r':
		return -1
	}
	return r
}

// SerializePlist encodes a canonical tree as an XML plist. Writes are
// always XML, regardless of how the source file was encoded.
func SerializePlist(n *Node) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(plistDocType)
	root := doc.CreateElement("plist")
	root.CreateAttr("version", "1.0")
	if err := elementFromNode(root, n); err != nil {
		return nil, err
	}
	doc.IndentTabs()
	return doc.WriteToBytes()
}

func elementFromNode(parent *etree.Element, n *Node) error {
	if n == nil {
		return errors.New(errors.ErrInvalidInput, "cannot serialize nil node")
	}
	switch n.Kind {
	case DictKind:
		dict := parent.CreateElement("dict")
		for _, key := range n.Keys {
			dict.CreateElement("key").SetText(key)
			child, _ := n.Get(key)
			if err := elementFromNode(dict, child); err != nil {
				return err
			}
		}
	case ArrayKind:
		arr := parent.CreateElement("array")
		for _, item := range n.Items {
			if err := elementFromNode(arr, item); err != nil {
				return err
			}
		}
	case StringKind:
		parent.CreateElement("string").SetText(n.Str)
	case IntKind:
		parent.CreateElement("integer").SetText(strconv.FormatInt(n.Int, 10))
	case FloatKind:
		parent.CreateElement("real").SetText(strconv.FormatFloat(n.Float, 'g', -1, 64))
	case BoolKind:
		if n.Bool {
			parent.CreateElement("true")
		} else {
			parent.CreateElement("false")
		}
	case DataKind:
		parent.CreateElement("data").SetText(base64.StdEncoding.EncodeToString(n.Data))
	case DateKind:
		parent.CreateElement("date").SetText(n.Date.UTC().Format(plistDateFormat))
	default:
		return errors.Newf(errors.ErrInvalidInput, "cannot serialize node kind %s", n.Kind)
	}
	return nil
}

// parseBinaryPlist decodes a binary plist through howett.net/plist.
// The library hands back unordered maps, so dict keys are sorted for
// deterministic results.
func parseBinaryPlist(data []byte) (*Node, error) {
	var v interface{}
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, errors.ErrMalformedLegacy, "invalid binary plist")
	}
	return nodeFromValue(v)
}

func nodeFromValue(v interface{}) (*Node, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		dict := NewDict()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, err := nodeFromValue(val[k])
			if err != nil {
				return nil, err
			}
			dict.Set(k, child)
		}
		return dict, nil
	case []interface{}:
		arr := NewArray()
		for _, item := range val {
			child, err := nodeFromValue(item)
			if err != nil {
				return nil, err
			}
			arr.Append(child)
		}
		return arr, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Int(int64(val)), nil
	case int:
		return Int(int64(val)), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case []byte:
		return Data(val), nil
	case time.Time:
		return Date(val.UTC()), nil
	default:
		return nil, errors.Newf(errors.ErrMalformedLegacy, "unsupported plist value type %T", v)
	}
}
