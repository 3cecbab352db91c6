package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// object is a decoded JSON object that remembers key order and the raw
// value of every key, so a rewrite keeps keys this package does not model.
type object struct {
	keys   []string
	values map[string]json.RawMessage
}

func decodeObject(data []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return object{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return object{}, fmt.Errorf("expected an object, got %s", bytes.TrimSpace(data))
	}
	obj := object{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return object{}, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return object{}, err
		}
		if _, seen := obj.values[key]; !seen {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = raw
	}
	return obj, nil
}

// field decodes key into dst. An absent key leaves dst untouched.
func (o object) field(key string, dst any) error {
	raw, ok := o.values[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// objectWriter renders keys in the original order, then any keys that were
// not in the source document, in the order they are set.
type objectWriter struct {
	order  []string
	values map[string]json.RawMessage
	added  []string
}

func newObjectWriter(src object) *objectWriter {
	w := &objectWriter{order: src.keys, values: make(map[string]json.RawMessage, len(src.values))}
	for k, v := range src.values {
		w.values[k] = v
	}
	return w
}

// set replaces key with v. A nil pointer keeps whatever raw value the
// source document held, which preserves nulls and values of the wrong type.
func (w *objectWriter) set(key string, v any, isNil bool) error {
	if isNil {
		return nil
	}
	raw, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if _, ok := w.values[key]; !ok {
		w.added = append(w.added, key)
	}
	w.values[key] = raw
	return nil
}

func (w *objectWriter) bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, keys := range [][]string{w.order, w.added} {
		for _, key := range keys {
			raw, ok := w.values[key]
			if !ok {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			name, err := marshalValue(key)
			if err != nil {
				return nil, err
			}
			buf.Write(name)
			buf.WriteByte(':')
			buf.Write(raw)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON never fails on a malformed job. The problem is kept and
// reported by Resolve so one bad item cannot hide the rest of the schedule.
func (r *JobRecord) UnmarshalJSON(data []byte) error {
	*r = JobRecord{}
	obj, err := decodeObject(data)
	if err != nil {
		r.raw = append(json.RawMessage(nil), data...)
		r.decodeErr = err
		return nil
	}
	r.doc = obj
	r.decodeErr = errors.Join(
		obj.field("url", &r.URL),
		obj.field("local", &r.Local),
		obj.field("start", &r.Start),
		obj.field("end", &r.End),
		obj.field("position", &r.Position),
		obj.field("title", &r.Title),
		obj.field("description", &r.Description),
		obj.field("account", &r.Account),
		obj.field("model", &r.Model),
		obj.field("subs", &r.Subs),
		obj.field("crop", &r.Crop),
		obj.field("tests", &r.Tests),
		obj.field("brainrot", &r.Brainrot),
	)
	return nil
}

// MarshalJSON writes the known keys over the source document's keys.
func (r JobRecord) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	w := newObjectWriter(r.doc)
	err := errors.Join(
		w.set("url", r.URL, r.URL == nil),
		w.set("local", r.Local, r.Local == nil),
		w.set("start", r.Start, r.Start == nil),
		w.set("end", r.End, r.End == nil),
		w.set("position", r.Position, r.Position == nil),
		w.set("title", r.Title, r.Title == nil),
		w.set("description", r.Description, r.Description == nil),
		w.set("account", r.Account, r.Account == nil),
		w.set("model", r.Model, r.Model == nil),
		w.set("subs", r.Subs, r.Subs == nil),
		w.set("crop", r.Crop, r.Crop == nil),
		w.set("tests", r.Tests, r.Tests == nil),
		w.set("brainrot", r.Brainrot, r.Brainrot == nil),
	)
	if err != nil {
		return nil, err
	}
	return w.bytes()
}

// UnmarshalJSON keeps a slot with a malformed date, status or items list;
// DueAt reports the problem and the slot is never selected.
func (s *Slot) UnmarshalJSON(data []byte) error {
	*s = Slot{}
	obj, err := decodeObject(data)
	if err != nil {
		s.raw = append(json.RawMessage(nil), data...)
		s.decodeErr = err
		return nil
	}
	s.doc = obj
	s.decodeErr = errors.Join(
		obj.field("date", &s.Due),
		obj.field("status", &s.Status),
		obj.field("items", &s.Items),
	)
	return nil
}

// MarshalJSON writes date, status and items over the source document's keys.
func (s Slot) MarshalJSON() ([]byte, error) {
	if s.raw != nil {
		return s.raw, nil
	}
	w := newObjectWriter(s.doc)
	items := s.Items
	if items == nil {
		items = []JobRecord{}
	}
	_, hadItems := s.doc.values["items"]
	err := errors.Join(
		w.set("date", s.Due, s.decodeErr != nil && s.Due == ""),
		w.set("status", s.Status, s.Status == ""),
		w.set("items", items, s.decodeErr != nil && s.Items == nil && hadItems),
	)
	if err != nil {
		return nil, err
	}
	return w.bytes()
}
