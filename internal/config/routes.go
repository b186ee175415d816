package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cotton-web/cotton/pkg/router"
)

// RouteEntry is one route declaration: the path pattern key and its
// definition.
type RouteEntry struct {
	Key   string
	Route router.Route
}

// RouteTable is the ordered list of route declarations. In the config
// file it is written as a mapping; parsing preserves key order because
// the matcher's first-match-wins tie-break depends on it.
type RouteTable []RouteEntry

// UnmarshalJSON decodes a JSON object into entries in declaration
// order. encoding/json's map decoding would scramble the order, so the
// object is walked token by token.
func (rt *RouteTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("routes must be an object, got %v", tok)
	}

	entries := RouteTable{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("route key must be a string, got %v", keyTok)
		}

		var route router.Route
		if err := dec.Decode(&route); err != nil {
			return fmt.Errorf("route %q: %w", key, err)
		}
		entries = append(entries, RouteEntry{Key: key, Route: route})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*rt = entries
	return nil
}

// MarshalJSON encodes the entries back into an object, preserving
// order.
func (rt RouteTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range rt {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		route, err := json.Marshal(entry.Route)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(route)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping into entries in declaration
// order.
func (rt *RouteTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("routes must be a mapping")
	}

	entries := RouteTable{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valueNode := value.Content[i+1]

		var route router.Route
		if err := valueNode.Decode(&route); err != nil {
			return fmt.Errorf("route %q: %w", keyNode.Value, err)
		}
		entries = append(entries, RouteEntry{Key: keyNode.Value, Route: route})
	}

	*rt = entries
	return nil
}
