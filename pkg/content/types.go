package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntry is returned when an entry is neither an object nor an array.
var ErrInvalidEntry = errors.New("entry must be an object or an array of objects")

// Record is an arbitrary JSON object from the content document.
type Record map[string]any

// StringField returns the field as a string when it holds one.
func (r Record) StringField(field string) (string, bool) {
	value, ok := r[field].(string)

	return value, ok
}

// Page is a page record. Fields holds every property of the record,
// including _path and _slug. A record without a string _path keeps an empty
// Path.
type Page struct {
	Path   string
	Slug   string
	Fields Record
}

// HasSlug reports whether the page declares a string _slug.
func (p Page) HasSlug() bool {
	_, ok := p.Fields.StringField("_slug")

	return ok
}

// UnmarshalJSON decodes a page record and lifts _path and _slug.
func (p *Page) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	var fields Record

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	path, _ := fields.StringField("_path")
	slug, _ := fields.StringField("_slug")

	p.Path = path
	p.Slug = slug
	p.Fields = fields

	return nil
}

// MarshalJSON encodes the page as its original record.
func (p Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields)
}

// Image is an image record. URL is empty when the record has no string url.
type Image struct {
	URL    string
	Fields Record
}

// UnmarshalJSON decodes an image record and lifts url.
func (i *Image) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	var fields Record

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return fmt.Errorf("parsing image: %w", err)
	}

	url, _ := fields.StringField("url")

	i.URL = url
	i.Fields = fields

	return nil
}

// MarshalJSON encodes the image as its original record.
func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Fields)
}

// Option is one label/value pair of an option list.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Entry holds either a single record or an ordered sequence of records. The
// producer decides the cardinality, so consumers branch on IsMany.
type Entry struct {
	single Record
	many   []Record
	isMany bool
}

// SingleEntry builds an entry holding one record.
func SingleEntry(record Record) Entry {
	return Entry{single: record}
}

// ManyEntry builds an entry holding a sequence of records.
func ManyEntry(records []Record) Entry {
	return Entry{many: records, isMany: true}
}

// IsMany reports whether the entry is a sequence.
func (e Entry) IsMany() bool {
	return e.isMany
}

// Single returns the record of a single entry.
func (e Entry) Single() (Record, bool) {
	if e.isMany {
		return nil, false
	}

	return e.single, true
}

// Many returns the records of a sequence entry.
func (e Entry) Many() ([]Record, bool) {
	if !e.isMany {
		return nil, false
	}

	return e.many, true
}

// Records returns the entry as a slice regardless of cardinality.
func (e Entry) Records() []Record {
	if e.isMany {
		return e.many
	}

	if e.single == nil {
		return nil
	}

	return []Record{e.single}
}

// UnmarshalJSON decodes an object as Single and an array as Many.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrInvalidEntry
	}

	switch trimmed[0] {
	case '{':
		var record Record

		err := json.Unmarshal(trimmed, &record)
		if err != nil {
			return fmt.Errorf("parsing entry: %w", err)
		}

		*e = SingleEntry(record)
	case '[':
		var records []Record

		err := json.Unmarshal(trimmed, &records)
		if err != nil {
			return fmt.Errorf("parsing entry: %w", err)
		}

		*e = ManyEntry(records)
	default:
		return ErrInvalidEntry
	}

	return nil
}

// MarshalJSON encodes the entry in its original cardinality.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.isMany {
		return json.Marshal(e.many)
	}

	return json.Marshal(e.single)
}

// Document is the content document served for one site environment.
type Document struct {
	Entries map[string]Entry    `json:"entries,omitempty"`
	Pages   []Page              `json:"pages,omitempty"`
	Images  map[string]Image    `json:"images,omitempty"`
	Lists   map[string][]Option `json:"lists,omitempty"`
	Config  Record              `json:"config,omitempty"`
}

// UnmarshalJSON decodes the document. The option-list facet is accepted
// under both "lists" and "options"; "lists" wins when both are present.
// Records that do not decode are skipped, and so is a facet of the wrong
// shape; only a document that is not an object is an error.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Entries json.RawMessage `json:"entries"`
		Pages   json.RawMessage `json:"pages"`
		Images  json.RawMessage `json:"images"`
		Lists   json.RawMessage `json:"lists"`
		Options json.RawMessage `json:"options"`
		Config  json.RawMessage `json:"config"`
	}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	d.Entries = decodeKeyed[Entry](raw.Entries)
	d.Pages = DecodePages(raw.Pages)
	d.Images = decodeKeyed[Image](raw.Images)
	d.Lists = decodeKeyed[[]Option](raw.Lists)
	d.Config = nil

	if d.Lists == nil {
		d.Lists = decodeKeyed[[]Option](raw.Options)
	}

	var config Record
	if json.Unmarshal(raw.Config, &config) == nil {
		d.Config = config
	}

	return nil
}

// decodeKeyed decodes an object facet record by record, dropping the
// records that fail to decode.
func decodeKeyed[T any](data json.RawMessage) map[string]T {
	var records map[string]json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &records) != nil || records == nil {
		return nil
	}

	decoded := make(map[string]T, len(records))

	for key, record := range records {
		var value T
		if json.Unmarshal(record, &value) == nil {
			decoded[key] = value
		}
	}

	return decoded
}

// DecodePages decodes a pages facet, dropping records that are not objects.
// Anything other than an array yields no pages.
func DecodePages(data []byte) []Page {
	var records []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &records) != nil || records == nil {
		return nil
	}

	pages := make([]Page, 0, len(records))

	for _, record := range records {
		var page Page
		if json.Unmarshal(record, &page) == nil && page.Fields != nil {
			pages = append(pages, page)
		}
	}

	return pages
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// FilterPages returns the pages whose path starts with prefix, in document
// order. The test is a plain string prefix, so "/blog" matches "/blogging".
func FilterPages(pages []Page, prefix string) []Page {
	matched := make([]Page, 0, len(pages))

	for _, page := range pages {
		if strings.HasPrefix(page.Path, prefix) {
			matched = append(matched, page)
		}
	}

	return matched
}

// Slugs returns the slugs of pages matching prefix that declare one.
func Slugs(pages []Page, prefix string) []string {
	slugs := make([]string, 0, len(pages))

	for _, page := range FilterPages(pages, prefix) {
		if page.HasSlug() {
			slugs = append(slugs, page.Slug)
		}
	}

	return slugs
}

// FindPage returns the page whose path equals path exactly.
func FindPage(pages []Page, path string) (*Page, error) {
	for i := range pages {
		if pages[i].Path == path {
			page := pages[i]

			return &page, nil
		}
	}

	return nil, &NotFoundError{Kind: "page", Key: path}
}
