package domain

import "strings"

// ContentType identifies the kind of learning material submitted.
type ContentType string

// Recognized content types.
const (
	ContentTypeImage ContentType = "image"
	ContentTypePDF   ContentType = "pdf"
	ContentTypeText  ContentType = "text"
	ContentTypeTopic ContentType = "topic"
)

// Well-known metadata keys.
const (
	MetadataMIMEType = "mime_type"
	MetadataFormat   = "format"
	MetadataFilename = "filename"
)

// IsValid reports whether t is one of the recognized content types.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeImage, ContentTypePDF, ContentTypeText, ContentTypeTopic:
		return true
	default:
		return false
	}
}

// ContentSource is the raw material a generation session starts from.
// It is treated as immutable input and never persisted as-is.
type ContentSource struct {
	Type     ContentType
	Content  []byte
	Metadata map[string]any
}

// MetadataString returns the metadata value for key when it is a string.
func (c ContentSource) MetadataString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// IsVisionInput reports whether the payload is image bytes that need
// extraction by the vision collaborator rather than already-extracted text.
func (c ContentSource) IsVisionInput() bool {
	return c.Type == ContentTypeImage &&
		strings.HasPrefix(strings.ToLower(c.MetadataString(MetadataMIMEType)), "image/")
}
