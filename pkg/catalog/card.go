// Package catalog turns binder documents into cards and answers queries
// over them.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Card is one trading card. Attributes come from document metadata, the
// document body becomes Text.
type Card struct {
	ID          string   `json:"-"`
	Name        string   `json:"name"`
	Number      string   `json:"number,omitempty"`
	Set         string   `json:"set,omitempty"`
	Series      string   `json:"series,omitempty"`
	Supertype   string   `json:"supertype,omitempty"`
	Subtypes    []string `json:"subtypes,omitempty"`
	Types       []string `json:"types,omitempty"`
	Rarity      string   `json:"rarity,omitempty"`
	HP          int      `json:"hp,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Text        string   `json:"-"`
}

// Title is the name to display, falling back to the ID.
func (c Card) Title() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Released parses ReleaseDate. Both 2006-01-02 and 2006/01/02 are accepted;
// anything else yields the zero time.
func (c Card) Released() time.Time {
	s := strings.TrimSpace(c.ReleaseDate)
	if len(s) > 10 {
		s = s[:10]
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// UnmarshalJSON accepts the loose shapes cards take across formats: numbers
// where strings are expected (YAML card numbers), strings where numbers are
// expected (CSV cells) and comma or pipe separated lists.
func (c *Card) UnmarshalJSON(data []byte) error {
	type plain Card
	aux := struct {
		*plain
		Number      flexString `json:"number"`
		HP          flexInt    `json:"hp"`
		Types       flexList   `json:"types"`
		Subtypes    flexList   `json:"subtypes"`
		ReleaseDate flexString `json:"releaseDate"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Number = string(aux.Number)
	c.HP = int(aux.HP)
	c.Types = aux.Types
	c.Subtypes = aux.Subtypes
	c.ReleaseDate = string(aux.ReleaseDate)
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = flexString(strings.TrimSpace(t))
	case float64:
		*f = flexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*f = flexString(strconv.FormatBool(t))
	default:
		return fmt.Errorf("expected a string, got %T", v)
	}
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = 0
	case float64:
		*f = flexInt(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", t)
		}
		*f = flexInt(n)
	default:
		return fmt.Errorf("expected a number, got %T", v)
	}
	return nil
}

type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = nil
	case string:
		*f = splitList(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected a list of strings, got %T", item)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*f = out
	default:
		return fmt.Errorf("expected a list, got %T", v)
	}
	return nil
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' })
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
