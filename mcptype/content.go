// Package mcptype holds the concrete MCP payload types that sit outside
// the session engine's core: tool/prompt/resource content, capability
// tables, and the initialize handshake. Nothing in session/ imports
// this package; it exists so examples/ and cmd/ have a typed surface
// to validate requests against and hand the core as results.
package mcptype

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

type ContentAnnotations struct {
	Audience []Role   `json:"audience,omitempty"`
	Priority *float64 `json:"priority,omitempty"`
}

type TextContent struct {
	Text string `json:"text"`
}

type ImageContent struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type EmbeddedResourceType string

const (
	EmbeddedResourceTypeBlob EmbeddedResourceType = "blob"
	EmbeddedResourceTypeText EmbeddedResourceType = "text"
)

type BlobResourceContents struct {
	Blob     string  `json:"blob"`
	MimeType *string `json:"mimeType,omitempty"`
	URI      string  `json:"uri"`
}

type TextResourceContents struct {
	MimeType *string `json:"mimeType,omitempty"`
	Text     string  `json:"text"`
	URI      string  `json:"uri"`
}

// EmbeddedResource is a resource embedded in a prompt or tool result.
// Exactly one of TextResourceContents/BlobResourceContents is set,
// chosen by EmbeddedResourceType.
type EmbeddedResource struct {
	EmbeddedResourceType EmbeddedResourceType
	TextResourceContents *TextResourceContents
	BlobResourceContents *BlobResourceContents
}

func (c EmbeddedResource) MarshalJSON() ([]byte, error) {
	switch c.EmbeddedResourceType {
	case EmbeddedResourceTypeBlob:
		return json.Marshal(c.BlobResourceContents)
	case EmbeddedResourceTypeText:
		return json.Marshal(c.TextResourceContents)
	default:
		return nil, fmt.Errorf("mcptype: unknown embedded resource type %q", c.EmbeddedResourceType)
	}
}

type ContentType string

const (
	ContentTypeText             ContentType = "text"
	ContentTypeImage            ContentType = "image"
	ContentTypeEmbeddedResource ContentType = "resource"
)

// CallResultContent is one entry of a tool call result's content array.
// Built only through the New* constructors so a value is always valid.
type CallResultContent struct {
	Type             ContentType
	TextContent      *TextContent
	ImageContent     *ImageContent
	EmbeddedResource *EmbeddedResource
	Annotations      *ContentAnnotations
}

func (c CallResultContent) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch c.Type {
	case ContentTypeText:
		raw, err = json.Marshal(c.TextContent)
	case ContentTypeImage:
		raw, err = json.Marshal(c.ImageContent)
	case ContentTypeEmbeddedResource:
		raw, err = json.Marshal(c.EmbeddedResource)
	default:
		return nil, fmt.Errorf("mcptype: unknown content type %q", c.Type)
	}
	if err != nil {
		return nil, err
	}

	raw, err = sjson.SetBytes(raw, "type", string(c.Type))
	if err != nil {
		return nil, err
	}
	if c.Annotations != nil {
		annotated, err := json.Marshal(c.Annotations)
		if err != nil {
			return nil, err
		}
		raw, err = sjson.SetBytes(raw, "annotations", annotated)
		if err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func (c *CallResultContent) WithAnnotations(a ContentAnnotations) *CallResultContent {
	c.Annotations = &a
	return c
}

// UnmarshalJSON sniffs the "type" discriminator and decodes into the
// matching payload, the inverse of MarshalJSON's flattening.
func (c *CallResultContent) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type        ContentType         `json:"type"`
		Annotations *ContentAnnotations `json:"annotations,omitempty"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	c.Type = probe.Type
	c.Annotations = probe.Annotations

	switch c.Type {
	case ContentTypeText:
		c.TextContent = &TextContent{}
		return json.Unmarshal(data, c.TextContent)
	case ContentTypeImage:
		c.ImageContent = &ImageContent{}
		return json.Unmarshal(data, c.ImageContent)
	case ContentTypeEmbeddedResource:
		var resourceProbe struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(data, &resourceProbe); err != nil {
			return err
		}
		c.EmbeddedResource = &EmbeddedResource{}
		var blobProbe struct {
			Blob *string `json:"blob"`
		}
		if err := json.Unmarshal(data, &blobProbe); err != nil {
			return err
		}
		if blobProbe.Blob != nil {
			c.EmbeddedResource.EmbeddedResourceType = EmbeddedResourceTypeBlob
			c.EmbeddedResource.BlobResourceContents = &BlobResourceContents{}
			return json.Unmarshal(data, c.EmbeddedResource.BlobResourceContents)
		}
		c.EmbeddedResource.EmbeddedResourceType = EmbeddedResourceTypeText
		c.EmbeddedResource.TextResourceContents = &TextResourceContents{}
		return json.Unmarshal(data, c.EmbeddedResource.TextResourceContents)
	default:
		return fmt.Errorf("mcptype: unknown content type %q", c.Type)
	}
}

// CallToolResult is the result payload of a tools/call request.
type CallToolResult struct {
	Content []*CallResultContent
	Err     error
}

func (c CallToolResult) MarshalJSON() ([]byte, error) {
	content := c.Content
	if c.Err != nil {
		content = []*CallResultContent{NewTextContent(c.Err.Error())}
	}
	return json.Marshal(struct {
		Content []*CallResultContent `json:"content"`
		IsError bool                 `json:"isError"`
	}{Content: content, IsError: c.Err != nil})
}

// UnmarshalJSON decodes a tools/call result. Content is always kept;
// when IsError is true and the first entry is text, Err is also set to
// an error carrying that text, the inverse of MarshalJSON.
func (c *CallToolResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Content []*CallResultContent `json:"content"`
		IsError bool                 `json:"isError"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Content = wire.Content
	if wire.IsError && len(wire.Content) > 0 && wire.Content[0].TextContent != nil {
		c.Err = fmt.Errorf("%s", wire.Content[0].TextContent.Text)
	}
	return nil
}

func NewCallToolResult(content ...*CallResultContent) *CallToolResult {
	return &CallToolResult{Content: content}
}

func NewCallToolError(err error) *CallToolResult {
	return &CallToolResult{Err: err}
}

func NewTextContent(text string) *CallResultContent {
	return &CallResultContent{Type: ContentTypeText, TextContent: &TextContent{Text: text}}
}

func NewImageContent(base64Data, mimeType string) *CallResultContent {
	return &CallResultContent{Type: ContentTypeImage, ImageContent: &ImageContent{Data: base64Data, MimeType: mimeType}}
}

func NewBlobResourceContent(uri, base64Data, mimeType string) *CallResultContent {
	return &CallResultContent{
		Type: ContentTypeEmbeddedResource,
		EmbeddedResource: &EmbeddedResource{
			EmbeddedResourceType: EmbeddedResourceTypeBlob,
			BlobResourceContents: &BlobResourceContents{Blob: base64Data, MimeType: &mimeType, URI: uri},
		},
	}
}

func NewTextResourceContent(uri, text, mimeType string) *CallResultContent {
	return &CallResultContent{
		Type: ContentTypeEmbeddedResource,
		EmbeddedResource: &EmbeddedResource{
			EmbeddedResourceType: EmbeddedResourceTypeText,
			TextResourceContents: &TextResourceContents{MimeType: &mimeType, Text: text, URI: uri},
		},
	}
}
