// Package models defines the domain types for flatrest.
package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IDField is the key every record carries.
const IDField = "id"

// Record is one JSON object of a resource. Field order is preserved on disk
// and on the wire. Values stay as their raw JSON text, so rewriting a file
// leaves numbers and nested objects of untouched records exactly as read.
type Record = *orderedmap.OrderedMap[string, json.RawMessage]

// NewRecord returns an empty record.
func NewRecord() Record {
	return orderedmap.New[string, json.RawMessage]()
}

// DecodeRecord parses a JSON object into a record.
func DecodeRecord(data []byte) (Record, error) {
	r := NewRecord()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// IntID renders n as an id value.
func IntID(n int) json.RawMessage {
	return json.RawMessage(strconv.Itoa(n))
}

// WithID builds a record whose first field is id followed by every field of
// src except its own id.
func WithID(id json.RawMessage, src Record) Record {
	out := NewRecord()
	out.Set(IDField, id)
	for p := src.Oldest(); p != nil; p = p.Next() {
		if p.Key == IDField {
			continue
		}
		out.Set(p.Key, p.Value)
	}
	return out
}

// IDString renders the id of r the way it appears in a URL path.
// Numbers keep their JSON text. Records without an id return ok=false.
func IDString(r Record) (string, bool) {
	raw, ok := r.Get(IDField)
	if !ok {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, true
	case json.Number:
		return id.String(), true
	case bool:
		return strconv.FormatBool(id), true
	default:
		return "", false
	}
}

// IndexOf returns the position of the first record whose id renders as id, or -1.
func IndexOf(records []Record, id string) int {
	for i, r := range records {
		if got, ok := IDString(r); ok && got == id {
			return i
		}
	}
	return -1
}
