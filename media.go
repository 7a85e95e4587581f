package gomedia

import (
	"maps"
	"path"
	"regexp"
	"time"
)

// ProviderStatus is the state of the ingestion pipeline for a media.
type ProviderStatus int

const (
	StatusPending ProviderStatus = iota
	StatusOK
	StatusError
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "pending"
	}
}

// CDNStatus tracks the cache invalidation bookkeeping of a media.
type CDNStatus int

const (
	CDNStatusUnknown CDNStatus = iota
	CDNStatusOK
	CDNStatusToSend
	CDNStatusToFlush
	CDNStatusError
	CDNStatusWaiting
)

// ReferenceState tells whether a media already owns a content handle.
type ReferenceState int

const (
	// ReferenceUnset means no content was ever ingested.
	ReferenceUnset ReferenceState = iota
	// ReferenceMissing marks a media awaiting its first binary content.
	ReferenceMissing
	// ReferenceAssigned carries a storage filename or a remote video id.
	ReferenceAssigned
)

// Reference is the provider-internal canonical handle of the media content.
type Reference struct {
	state ReferenceState
	value string
}

// AssignedReference returns a reference holding value. An empty value yields
// an unset reference.
func AssignedReference(value string) Reference {
	if value == "" {
		return Reference{}
	}
	return Reference{state: ReferenceAssigned, value: value}
}

// MissingReference returns the "awaiting first content" reference.
func MissingReference() Reference {
	return Reference{state: ReferenceMissing}
}

func (r Reference) State() ReferenceState { return r.state }

// Value returns the assigned value and whether the reference is assigned.
func (r Reference) Value() (string, bool) {
	return r.value, r.state == ReferenceAssigned
}

func (r Reference) IsAssigned() bool { return r.state == ReferenceAssigned }

// String returns the assigned value, or an empty string.
func (r Reference) String() string { return r.value }

// Media is the entity handled by providers. The persistence layer owns it;
// providers only read and populate its fields.
type Media struct {
	// ID is assigned by persistence, zero before the first save.
	ID int64

	Name        string
	Description string
	Enabled     bool
	AuthorName  string
	Copyright   string

	ProviderName      string
	ProviderStatus    ProviderStatus
	ProviderReference Reference
	ProviderMetadata  map[string]any

	Context string

	Width       int
	Height      int
	Length      float64
	Size        int64
	ContentType string

	CdnIsFlushable     bool
	CdnFlushIdentifier string
	CdnStatus          CDNStatus
	CdnFlushAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	previousReference string
	binaryContent     BinaryContent
}

// HasID reports whether the media was persisted at least once.
func (m *Media) HasID() bool { return m.ID != 0 }

// SetBinaryContent attaches new content. The current reference becomes the
// previous reference so the old blob can be cleaned up on update.
func (m *Media) SetBinaryContent(content BinaryContent) {
	m.previousReference = m.ProviderReference.String()
	m.ProviderReference = Reference{}
	m.binaryContent = content
}

// BinaryContent returns the transient content, nil when absent.
func (m *Media) BinaryContent() BinaryContent { return m.binaryContent }

// ReplaceBinaryContent swaps the transient content without touching the
// reference, used by providers while normalizing input.
func (m *Media) ReplaceBinaryContent(content BinaryContent) { m.binaryContent = content }

// ResetBinaryContent clears the transient content after ingestion.
func (m *Media) ResetBinaryContent() { m.binaryContent = nil }

// PreviousProviderReference returns the reference held before the last
// SetBinaryContent call.
func (m *Media) PreviousProviderReference() string { return m.previousReference }

// Box returns the natural dimensions of the media.
func (m *Media) Box() Box { return Box{Width: m.Width, Height: m.Height} }

var queryOrFragment = regexp.MustCompile(`[?#].*`)

// Extension returns the extension of the reference, without the dot. Query
// strings and fragments of remote references are stripped.
func (m *Media) Extension() string {
	ref, ok := m.ProviderReference.Value()
	if !ok {
		return ""
	}
	ext := path.Ext(queryOrFragment.ReplaceAllString(ref, ""))
	if ext == "" {
		return ""
	}
	return ext[1:]
}

func (m *Media) MetadataValue(name string) (any, bool) {
	v, ok := m.ProviderMetadata[name]
	return v, ok
}

// MetadataString returns the metadata value as a string, or fallback.
func (m *Media) MetadataString(name, fallback string) string {
	if v, ok := m.ProviderMetadata[name].(string); ok {
		return v
	}
	return fallback
}

func (m *Media) SetMetadataValue(name string, value any) {
	if m.ProviderMetadata == nil {
		m.ProviderMetadata = map[string]any{}
	}
	m.ProviderMetadata[name] = value
}

func (m *Media) UnsetMetadataValue(name string) {
	delete(m.ProviderMetadata, name)
}

// Clone returns a detached copy. Binary content is shared, metadata is copied.
func (m *Media) Clone() *Media {
	c := *m
	c.ProviderMetadata = maps.Clone(m.ProviderMetadata)
	if m.CdnFlushAt != nil {
		at := *m.CdnFlushAt
		c.CdnFlushAt = &at
	}
	return &c
}
