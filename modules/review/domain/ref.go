// Package domain holds the client-side representations of positions, tasks,
// members and teams, normalized at the JSON decoding boundary.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// ID is a backend identifier. The backend emits both numeric and string ids.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: expected string or number, got %s", string(b))
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits integer-looking ids as numbers so they round-trip unchanged.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Ref is a company, department or supervisor reference. On the wire it is
// either a bare name string or an object with id and name.
type Ref struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

type refObject Ref

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*r = Ref{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref{Name: strings.TrimSpace(s)}
		return nil
	}
	var obj refObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("ref: %w", err)
	}
	obj.Name = strings.TrimSpace(obj.Name)
	*r = Ref(obj)
	return nil
}

// Label is the name, or the id when the name is unknown.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return string(r.ID)
}

// RefLabel returns the label of r, tolerating nil.
func RefLabel(r *Ref) string { return r.Label() }

// Level is a supervisory level. A larger Rank is more senior.
type Level struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Rank int    `json:"rank"`
}

type levelObject struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Rank  *int   `json:"rank"`
	Level *int   `json:"level"`
}

func (l *Level) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*l = Level{}
		return nil
	}
	if b[0] != '{' {
		var n json.Number
		if b[0] == '"' {
			var s string
			if err := json.Unmarshal(b, &s); err != nil {
				return err
			}
			n = json.Number(strings.TrimSpace(s))
		} else if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		rank, err := strconv.Atoi(n.String())
		if err != nil {
			return fmt.Errorf("level: expected integer rank, got %s", string(b))
		}
		*l = Level{Rank: rank}
		return nil
	}
	var obj levelObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("level: %w", err)
	}
	out := Level{ID: obj.ID, Name: obj.Name}
	switch {
	case obj.Rank != nil:
		out.Rank = *obj.Rank
	case obj.Level != nil:
		out.Rank = *obj.Level
	}
	*l = out
	return nil
}
