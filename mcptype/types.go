package mcptype

// LoggingLevel is the severity of a notifications/message log entry.
type LoggingLevel string

const (
	LogLevelEmergency LoggingLevel = "emergency"
	LogLevelAlert     LoggingLevel = "alert"
	LogLevelCritical  LoggingLevel = "critical"
	LogLevelError     LoggingLevel = "error"
	LogLevelWarning   LoggingLevel = "warning"
	LogLevelNotice    LoggingLevel = "notice"
	LogLevelInfo      LoggingLevel = "info"
	LogLevelDebug     LoggingLevel = "debug"
)

// Implementation identifies an MCP client or server by name and version.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListChangedCapability marks that a server will emit the matching
// notifications/*/list_changed notification when its list changes.
type ListChangedCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability is ServerCapabilities.Resources: resources also
// support per-resource subscription.
type ResourcesCapability struct {
	ListChanged bool `json:"listChanged"`
	Subscribe   bool `json:"subscribe"`
}

// ClientCapabilities is advertised during initialize.
type ClientCapabilities struct {
	Experimental map[string]map[string]interface{} `json:"experimental,omitempty"`
	Roots        *ListChangedCapability             `json:"roots,omitempty"`
	Sampling     map[string]interface{}             `json:"sampling,omitempty"`
}

// ServerCapabilities is advertised in the initialize result. Which
// requests/notifications a session may emit or register a handler for,
// under strict-capabilities mode, is decided against this table by the
// specializing layer (see CapabilityAsserter).
type ServerCapabilities struct {
	Experimental map[string]map[string]interface{} `json:"experimental,omitempty"`
	Logging      map[string]interface{}            `json:"logging,omitempty"`
	Prompts      *ListChangedCapability             `json:"prompts,omitempty"`
	Resources    *ResourcesCapability               `json:"resources,omitempty"`
	Tools        *ListChangedCapability             `json:"tools,omitempty"`
}

// Tool describes one tool a server exposes via tools/list.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// PromptArgument describes one argument a Prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt describes one prompt template a server exposes via prompts/list.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// Resource describes one resource a server exposes via resources/list.
type Resource struct {
	Name        string              `json:"name"`
	URI         string              `json:"uri"`
	MimeType    string              `json:"mimeType,omitempty"`
	Description string              `json:"description,omitempty"`
	Annotations *ContentAnnotations `json:"annotations,omitempty"`
}

// ResourceTemplate describes a URI template for a family of resources.
type ResourceTemplate struct {
	Name        string              `json:"name"`
	URITemplate string              `json:"uriTemplate"`
	MimeType    string              `json:"mimeType,omitempty"`
	Description string              `json:"description,omitempty"`
	Annotations *ContentAnnotations `json:"annotations,omitempty"`
}

// ListToolsParams/Result implement the cursor-paginated tools/list pair.
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type ListPromptsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type PromptMessage struct {
	Role    Role        `json:"role"`
	Content interface{} `json:"content"`
}

type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

type ListResourcesParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	Contents []interface{} `json:"contents"` // TextResourceContents or BlobResourceContents
}

// InitializeParams/Result implement the handshake.
type InitializeParams struct {
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
	ProtocolVersion string             `json:"protocolVersion"`
}

type InitializeResult struct {
	Capabilities    ServerCapabilities `json:"capabilities"`
	Instructions    string             `json:"instructions,omitempty"`
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// ProtocolVersion is the MCP wire version this package speaks.
const ProtocolVersion = "2024-11-05"
