package dto

// --- Health ---

// HealthResponse is a response from the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// --- Tree ---

// NodeType is the kind of a tree node.
type NodeType string

const (
	// NodeTypeFolder is a directory.
	NodeTypeFolder NodeType = "folder"
	// NodeTypeFile is a regular file.
	NodeTypeFile NodeType = "file"
)

// NodeResponse is one file or folder of the tree.
type NodeResponse struct {
	Name          string          `json:"name"`
	OriginalName  string          `json:"originalName"`
	Path          string          `json:"path"`
	Type          NodeType        `json:"type"`
	Depth         int             `json:"depth"`
	Extension     string          `json:"extension,omitempty"`
	Size          int64           `json:"size"`
	SizeHuman     string          `json:"sizeHuman,omitempty"`
	Modified      string          `json:"modified"`
	PreviewRef    string          `json:"previewRef,omitempty"`
	DuplicateName bool            `json:"duplicateName,omitempty"`
	Children      []*NodeResponse `json:"children,omitempty"`
}

// TreeResponse is a response containing a subtree.
type TreeResponse struct {
	Path  string          `json:"path"`
	Nodes []*NodeResponse `json:"nodes"`
	Total int             `json:"total"`
}

// --- Content ---

// ContentResponse is a response containing one file.
type ContentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
	Size    int64  `json:"size"`
}

// --- Mutations ---

// MutationResponse is a response from a single-target mutation.
type MutationResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ItemResult is the outcome of one item of a batch mutation.
type ItemResult struct {
	Path    string         `json:"path"`
	Success bool           `json:"success"`
	Error   *ErrorDetails  `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// BatchResponse is a response from delete or upload. Success is false when
// at least one item failed; the request itself still succeeded.
type BatchResponse struct {
	Success      bool         `json:"success"`
	Paths        []string     `json:"paths"`
	Message      string       `json:"message"`
	SuccessCount int          `json:"successCount"`
	ErrorCount   int          `json:"errorCount"`
	Results      []ItemResult `json:"results"`
}
