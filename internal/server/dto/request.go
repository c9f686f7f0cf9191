package dto

// --- Health ---

// HealthRequest is a request to check server health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// --- Tree ---

// TreeRequest is a request to list the subtree below Path ("" for the root).
type TreeRequest struct {
	Path string `query:"path"`
}

// Validate is a no-op for TreeRequest; the path is checked by the scanner.
func (r *TreeRequest) Validate() error {
	return nil
}

// ContentFormat selects the representation returned by the content endpoint.
type ContentFormat string

const (
	// ContentFormatRaw returns the file text unchanged.
	ContentFormatRaw ContentFormat = "raw"
	// ContentFormatHTML additionally returns the rendered HTML.
	ContentFormatHTML ContentFormat = "html"
)

// ContentRequest is a request to read one file.
type ContentRequest struct {
	Path   string        `query:"path"`
	Format ContentFormat `query:"format"`
}

// Validate validates the content request fields.
func (r *ContentRequest) Validate() error {
	if r.Path == "" {
		return MissingField("path")
	}
	switch r.Format {
	case "", ContentFormatRaw, ContentFormatHTML:
	default:
		return BadRequest("format must be raw or html")
	}
	return nil
}

// --- Mutations ---

// CreateFileRequest is a request to create a document. Type is "md" (default)
// or "mdx". Content is optional; when omitted a short default body is written.
type CreateFileRequest struct {
	Name    string  `json:"name"`
	Type    string  `json:"type,omitempty"`
	Path    string  `json:"path"`
	Content *string `json:"content,omitempty"`
}

// Validate validates the create file request fields.
func (r *CreateFileRequest) Validate() error {
	if r.Name == "" {
		return MissingField("name")
	}
	return nil
}

// CreateFolderRequest is a request to create a folder.
type CreateFolderRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Validate validates the create folder request fields.
func (r *CreateFolderRequest) Validate() error {
	if r.Name == "" {
		return MissingField("name")
	}
	return nil
}

// DeleteRequest is a request to delete files and folders.
type DeleteRequest struct {
	Paths []string `json:"paths"`
}

// Validate validates the delete request fields.
func (r *DeleteRequest) Validate() error {
	if len(r.Paths) == 0 {
		return MissingField("paths")
	}
	return nil
}

// MoveRequest is a request to move Source into the folder TargetParent.
type MoveRequest struct {
	Source       string `json:"source"`
	TargetParent string `json:"targetParent"`
}

// Validate validates the move request fields. An empty TargetParent is the
// root folder.
func (r *MoveRequest) Validate() error {
	if r.Source == "" {
		return MissingField("source")
	}
	return nil
}
