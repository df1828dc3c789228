package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/binder/pkg/core"
)

// contentKey holds the document body in structured formats.
const contentKey = "content"

// Serializer reads and writes a single-document file format.
type Serializer interface {
	// Parse reads from r and returns a Document without ID.
	Parse(r io.Reader) (*core.Document, error)
	// Serialize converts the Document to bytes.
	Serialize(doc core.Document) ([]byte, error)
}

// CollectionSerializer reads and writes a file holding many documents, one
// per row, keyed by an ID column.
type CollectionSerializer interface {
	ParseCollection(r io.Reader, idColumn string) ([]core.Document, error)
	SerializeCollection(docs []core.Document, idColumn string) ([]byte, error)
}

// DefaultSerializers returns the single-document serializers by extension.
// Lookup order for extension-less IDs follows documentExtensions.
func DefaultSerializers(strict bool) map[string]Serializer {
	return map[string]Serializer{
		".json": NewJSONSerializer(strict),
		".yaml": NewYAMLSerializer(strict),
		".yml":  NewYAMLSerializer(strict),
		".md":   NewMarkdownSerializer(strict),
	}
}

// documentExtensions is the probe order when an ID carries no extension.
var documentExtensions = []string{".md", ".yaml", ".yml", ".json"}

// collectionExtension is the only collection format.
const collectionExtension = ".csv"

// --- JSON Serializer ---

// JSONSerializer handles card documents stored as a JSON object.
type JSONSerializer struct {
	// Strict enables strict number parsing (as json.Number) to avoid precision loss.
	Strict bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer(strict bool) *JSONSerializer {
	return &JSONSerializer{Strict: strict}
}

func (s *JSONSerializer) Parse(r io.Reader) (*core.Document, error) {
	decoder := json.NewDecoder(r)
	if s.Strict {
		decoder.UseNumber()
	}

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return splitContent(payload), nil
}

func (s *JSONSerializer) Serialize(doc core.Document) ([]byte, error) {
	return json.MarshalIndent(joinContent(doc), "", "  ")
}

// --- YAML Serializer ---

// YAMLSerializer handles card documents stored as a YAML mapping.
type YAMLSerializer struct {
	Strict bool
}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer(strict bool) *YAMLSerializer {
	return &YAMLSerializer{Strict: strict}
}

func (s *YAMLSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	doc := splitContent(payload)
	if s.Strict {
		doc.Metadata = normalizeNumbers(doc.Metadata).(core.Metadata)
	}
	return doc, nil
}

func (s *YAMLSerializer) Serialize(doc core.Document) ([]byte, error) {
	return yaml.Marshal(joinContent(doc))
}

// --- Markdown Serializer ---

// MarkdownSerializer handles Markdown files with a YAML frontmatter block.
// The frontmatter is the metadata, the body is the content.
type MarkdownSerializer struct {
	Strict bool
}

// NewMarkdownSerializer creates a new Markdown serializer.
func NewMarkdownSerializer(strict bool) *MarkdownSerializer {
	return &MarkdownSerializer{Strict: strict}
}

func (s *MarkdownSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{Metadata: make(core.Metadata)}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		doc.Content = string(data)
		return doc, nil
	}

	parts := bytes.SplitN(data[3:], []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(core.Metadata)
	}

	body := string(parts[1])
	body = strings.TrimPrefix(body, "\r")
	body = strings.TrimPrefix(body, "\n")
	doc.Content = body

	if s.Strict {
		doc.Metadata = normalizeNumbers(doc.Metadata).(core.Metadata)
	}
	return doc, nil
}

func (s *MarkdownSerializer) Serialize(doc core.Document) ([]byte, error) {
	var buf bytes.Buffer
	if len(doc.Metadata) > 0 {
		buf.WriteString("---\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(map[string]any(doc.Metadata)); err != nil {
			return nil, err
		}
		encoder.Close()
		buf.WriteString("---\n")
	}
	buf.WriteString(doc.Content)
	return buf.Bytes(), nil
}

// --- CSV Collection ---

// CSVSerializer handles set lists: one card per row, header in the first row.
type CSVSerializer struct {
	Strict bool
}

// NewCSVSerializer creates a new CSV collection serializer.
func NewCSVSerializer(strict bool) *CSVSerializer {
	return &CSVSerializer{Strict: strict}
}

// ParseCollection returns one document per row. The document ID is the value
// of idColumn; rows without it are rejected.
func (s *CSVSerializer) ParseCollection(r io.Reader, idColumn string) ([]core.Document, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idIdx := -1
	for i, h := range headers {
		if strings.EqualFold(h, idColumn) {
			idIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("csv has no %q column", idColumn)
	}

	var docs []core.Document
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", line, err)
		}

		id := strings.TrimSpace(row[idIdx])
		if id == "" {
			return nil, fmt.Errorf("csv row %d has empty %q", line, idColumn)
		}

		doc := core.Document{ID: id, Metadata: make(core.Metadata)}
		for i, h := range headers {
			if i == idIdx {
				continue
			}
			if strings.EqualFold(h, contentKey) {
				doc.Content = row[i]
				continue
			}
			doc.Metadata[h] = UnmarshalCSVValue(row[i], s.Strict)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SerializeCollection writes docs as rows. Columns are the union of metadata
// keys in sorted order, after the id column and before content.
func (s *CSVSerializer) SerializeCollection(docs []core.Document, idColumn string) ([]byte, error) {
	keySet := make(map[string]bool)
	hasContent := false
	for _, d := range docs {
		for k := range d.Metadata {
			keySet[k] = true
		}
		if d.Content != "" {
			hasContent = true
		}
	}
	delete(keySet, idColumn)
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := append([]string{idColumn}, keys...)
	if hasContent {
		header = append(header, contentKey)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, d := range docs {
		row := []string{d.ID}
		for _, k := range keys {
			v, ok := d.Metadata[k]
			if !ok || v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, MarshalCSVValue(v))
		}
		if hasContent {
			row = append(row, d.Content)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// --- Helpers ---

func splitContent(payload map[string]any) *core.Document {
	doc := &core.Document{Metadata: make(core.Metadata, len(payload))}
	for k, v := range payload {
		if k == contentKey {
			if c, ok := v.(string); ok {
				doc.Content = c
				continue
			}
		}
		doc.Metadata[k] = v
	}
	return doc
}

func joinContent(doc core.Document) map[string]any {
	payload := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	if doc.Content != "" {
		payload[contentKey] = doc.Content
	}
	return payload
}

// UnmarshalCSVValue parses a cell as JSON if it looks like an array or object
// (e.g. a list of types). Otherwise the trimmed string is returned.
//
// A plain string that happens to be valid JSON in brackets is decoded too.
func UnmarshalCSVValue(val string, strict bool) any {
	trimmed := strings.TrimSpace(val)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var parsed any
		decoder := json.NewDecoder(strings.NewReader(trimmed))
		if strict {
			decoder.UseNumber()
		}
		if err := decoder.Decode(&parsed); err == nil {
			return parsed
		}
	}
	return trimmed
}

// MarshalCSVValue converts a value to a cell, using JSON for maps and slices.
func MarshalCSVValue(v any) string {
	switch v.(type) {
	case map[string]any, []any, map[string]string, []string:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

// normalizeNumbers converts numeric values to json.Number so YAML and
// frontmatter documents match JSON strict mode.
func normalizeNumbers(val any) any {
	switch v := val.(type) {
	case core.Metadata:
		m := make(core.Metadata, len(v))
		for k, val := range v {
			m[k] = normalizeNumbers(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = normalizeNumbers(val)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, val := range v {
			l[i] = normalizeNumbers(val)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}
