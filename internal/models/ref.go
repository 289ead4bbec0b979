package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ref is a reference to another document. The backend sends it either as a
// bare id string or as a populated object carrying `_id`.
type Ref struct {
	ID       string `json:"_id"`
	Fullname string `json:"fullname,omitempty"`
	Email    string `json:"email,omitempty"`
	Title    string `json:"title,omitempty"`

	populated bool
}

// NewRef returns an unpopulated reference to id.
func NewRef(id string) Ref {
	return Ref{ID: id}
}

// Populated reports whether the reference arrived as an object.
func (r Ref) Populated() bool {
	return r.populated
}

func (r Ref) String() string {
	return r.ID
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	if b[0] != '{' {
		// numeric ids from older endpoints
		*r = Ref{ID: string(b)}
		return nil
	}
	var obj struct {
		ID       json.RawMessage `json:"_id"`
		AltID    json.RawMessage `json:"id"`
		Fullname string          `json:"fullname"`
		Email    string          `json:"email"`
		Title    string          `json:"title"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	raw := obj.ID
	if len(raw) == 0 {
		raw = obj.AltID
	}
	var id string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &id); err != nil {
			id = strings.Trim(string(raw), `"`)
		}
	}
	*r = Ref{
		ID:        id,
		Fullname:  obj.Fullname,
		Email:     obj.Email,
		Title:     obj.Title,
		populated: true,
	}
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.populated {
		return json.Marshal(r.ID)
	}
	type populated struct {
		ID       string `json:"_id"`
		Fullname string `json:"fullname,omitempty"`
		Email    string `json:"email,omitempty"`
		Title    string `json:"title,omitempty"`
	}
	return json.Marshal(populated{ID: r.ID, Fullname: r.Fullname, Email: r.Email, Title: r.Title})
}

// Populate marks r as a populated reference with the given display fields.
func (r Ref) Populate(fullname, email, title string) Ref {
	r.Fullname = fullname
	r.Email = email
	r.Title = title
	r.populated = true
	return r
}

// IDToStr normalises every id shape the backend produces to its string
// form: bare strings, ObjectIDs, populated references and decoded JSON
// objects carrying `_id`.
func IDToStr(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case Ref:
		return t.ID
	case *Ref:
		if t == nil {
			return ""
		}
		return t.ID
	case primitive.ObjectID:
		if t.IsZero() {
			return ""
		}
		return t.Hex()
	case *primitive.ObjectID:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Hex()
	case map[string]any:
		if id, ok := t["_id"]; ok {
			return IDToStr(id)
		}
		if id, ok := t["id"]; ok {
			return IDToStr(id)
		}
		return ""
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

// SameID compares two ids after normalisation. Empty ids never match.
func SameID(a, b any) bool {
	as := IDToStr(a)
	return as != "" && as == IDToStr(b)
}

// IsObjectID reports whether id is a 24-char hex ObjectID.
func IsObjectID(id string) bool {
	return primitive.IsValidObjectID(id)
}
