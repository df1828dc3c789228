package fs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/binder/pkg/core"
)

func TestDocumentSerializers(t *testing.T) {
	doc := core.Document{
		Content: "When Charizard is played, discard an Energy card.",
		Metadata: core.Metadata{
			"name":   "Charizard",
			"types":  []any{"Fire"},
			"rarity": "Rare Holo",
		},
	}

	for _, ext := range []string{".json", ".yaml", ".yml", ".md"} {
		t.Run(ext, func(t *testing.T) {
			s := DefaultSerializers(false)[ext]
			require.NotNil(t, s)

			data, err := s.Serialize(doc)
			require.NoError(t, err)

			parsed, err := s.Parse(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, doc.Content, strings.TrimRight(parsed.Content, "\n"))
			assert.Equal(t, "Charizard", parsed.Metadata["name"])
			assert.Equal(t, "Rare Holo", parsed.Metadata["rarity"])
			assert.Equal(t, []any{"Fire"}, parsed.Metadata["types"])
			assert.NotContains(t, parsed.Metadata, contentKey)
		})
	}
}

func TestMarkdownSerializer(t *testing.T) {
	s := NewMarkdownSerializer(false)

	t.Run("no frontmatter", func(t *testing.T) {
		doc, err := s.Parse(strings.NewReader("just text"))
		require.NoError(t, err)
		assert.Equal(t, "just text", doc.Content)
		assert.Empty(t, doc.Metadata)
	})

	t.Run("unterminated frontmatter", func(t *testing.T) {
		_, err := s.Parse(strings.NewReader("---\nname: Pikachu\n"))
		assert.Error(t, err)
	})

	t.Run("crlf", func(t *testing.T) {
		doc, err := s.Parse(strings.NewReader("---\r\nname: Pikachu\r\n---\r\nbody"))
		require.NoError(t, err)
		assert.Equal(t, "Pikachu", strings.TrimSpace(doc.Metadata["name"].(string)))
		assert.Equal(t, "body", doc.Content)
	})
}

func TestStrictNumbers(t *testing.T) {
	input := "---\nhp: 120\nweight: 90.5\n---\n"

	loose, err := NewMarkdownSerializer(false).Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 120, loose.Metadata["hp"])

	strict, err := NewMarkdownSerializer(true).Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, json.Number("120"), strict.Metadata["hp"])
	assert.Equal(t, json.Number("90.5"), strict.Metadata["weight"])

	js, err := NewJSONSerializer(true).Parse(strings.NewReader(`{"hp": 120}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("120"), js.Metadata["hp"])
}

func TestCSVCollection(t *testing.T) {
	input := "id,name,types,hp\n4,Charizard,\"[\"\"Fire\"\"]\",120\n58, Pikachu ,Lightning,40\n"

	s := NewCSVSerializer(false)
	docs, err := s.ParseCollection(strings.NewReader(input), "id")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "4", docs[0].ID)
	assert.Equal(t, "Charizard", docs[0].Metadata["name"])
	assert.Equal(t, []any{"Fire"}, docs[0].Metadata["types"])
	assert.Equal(t, "120", docs[0].Metadata["hp"])
	assert.Equal(t, "Pikachu", docs[1].Metadata["name"])
	assert.NotContains(t, docs[0].Metadata, "id")

	data, err := s.SerializeCollection(docs, "id")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "id,hp,name,types", lines[0])

	again, err := s.ParseCollection(bytes.NewReader(data), "id")
	require.NoError(t, err)
	assert.Equal(t, docs, again)
}

func TestCSVCollectionErrors(t *testing.T) {
	s := NewCSVSerializer(false)

	_, err := s.ParseCollection(strings.NewReader("name\nPikachu\n"), "id")
	assert.ErrorContains(t, err, `"id"`)

	_, err = s.ParseCollection(strings.NewReader("id,name\n,Pikachu\n"), "id")
	assert.ErrorContains(t, err, "row 2")

	docs, err := s.ParseCollection(strings.NewReader(""), "id")
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCSVValues(t *testing.T) {
	assert.Equal(t, "plain", UnmarshalCSVValue(" plain ", false))
	assert.Equal(t, "[broken", UnmarshalCSVValue("[broken", false))
	assert.Equal(t, map[string]any{"a": 1.0}, UnmarshalCSVValue(`{"a":1}`, false))
	assert.Equal(t, map[string]any{"a": json.Number("1")}, UnmarshalCSVValue(`{"a":1}`, true))

	assert.Equal(t, `["Fire","Water"]`, MarshalCSVValue([]any{"Fire", "Water"}))
	assert.Equal(t, "120", MarshalCSVValue(120))
}
