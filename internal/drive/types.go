package drive

import (
	"strings"
	"time"
)

// MIME types of Drive-native objects
const (
	// FolderMimeType is the MIME type for Google Drive folders
	FolderMimeType = "application/vnd.google-apps.folder"

	// DocumentMimeType is the MIME type for Google Docs
	DocumentMimeType = "application/vnd.google-apps.document"

	// SpreadsheetMimeType is the MIME type for Google Sheets
	SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// PresentationMimeType is the MIME type for Google Slides
	PresentationMimeType = "application/vnd.google-apps.presentation"

	// DrawingMimeType is the MIME type for Google Drawings
	DrawingMimeType = "application/vnd.google-apps.drawing"

	// workspaceMimePrefix prefixes every Workspace-native type
	workspaceMimePrefix = "application/vnd.google-apps."
)

// RootID is the well-known alias of the root folder of "My Drive".
const RootID = "root"

// Kind classifies a remote object.
type Kind string

const (
	// KindFolder is a folder; it has no content payload.
	KindFolder Kind = "folder"

	// KindFile is a regular file with downloadable bytes.
	KindFile Kind = "file"

	// KindDocument is a Workspace-native document that must be exported.
	KindDocument Kind = "document"
)

// KindOf classifies a MIME type.
func KindOf(mimeType string) Kind {
	switch {
	case mimeType == FolderMimeType:
		return KindFolder
	case strings.HasPrefix(mimeType, workspaceMimePrefix):
		return KindDocument
	default:
		return KindFile
	}
}

// Sharing summarizes who can see an object.
type Sharing struct {
	// Shared is true when the object is shared with anyone besides the owner
	Shared bool `json:"shared"`

	// OwnedByMe is true when the authenticated user owns the object
	OwnedByMe bool `json:"ownedByMe"`

	// Public is true when anyone (or anyone with the link) can access the object
	Public bool `json:"public"`
}

// RemoteObject is a node in the remote store.
type RemoteObject struct {
	// ID is the opaque, immutable object ID
	ID string `json:"id"`

	// Name is the object name; it is not unique among siblings
	Name string `json:"name"`

	// MimeType is the MIME type reported by Drive
	MimeType string `json:"mimeType"`

	// Kind is derived from MimeType
	Kind Kind `json:"kind"`

	// Parents lists the parent folder IDs in the order Drive reports them
	Parents []string `json:"parents,omitempty"`

	// Size is the content size in bytes; nil for folders and Workspace documents
	Size *int64 `json:"size,omitempty"`

	// CreatedTime is when the object was created
	CreatedTime time.Time `json:"createdTime"`

	// ModifiedTime is when the object was last modified
	ModifiedTime time.Time `json:"modifiedTime"`

	// Trashed indicates whether the object is in the trash
	Trashed bool `json:"trashed"`

	// Sharing describes the object's visibility
	Sharing Sharing `json:"sharing"`
}

// IsFolder reports whether the object is a folder.
func (o *RemoteObject) IsFolder() bool {
	return o.Kind == KindFolder
}

// FirstParent returns the first listed parent ID, or "" for parentless objects.
func (o *RemoteObject) FirstParent() string {
	if len(o.Parents) == 0 {
		return ""
	}
	return o.Parents[0]
}

// HasParent reports whether parentID is one of the object's parents.
func (o *RemoteObject) HasParent(parentID string) bool {
	for _, p := range o.Parents {
		if p == parentID {
			return true
		}
	}
	return false
}

// ListRequest holds the parameters of a LIST call.
type ListRequest struct {
	// Query is a filter in the Drive query dialect; empty means no filter
	Query string

	// PageSize caps the number of returned objects (0 uses the Drive default)
	PageSize int

	// PageToken continues a previous listing
	PageToken string

	// OrderBy is a Drive sort expression such as "folder,name"
	OrderBy string
}

// ListResult is one page of a LIST call.
type ListResult struct {
	// Objects are the returned objects in server order
	Objects []*RemoteObject

	// NextPageToken is set when more results are available
	NextPageToken string
}

// CreateRequest holds the metadata of a CREATE call.
type CreateRequest struct {
	Name     string
	MimeType string
	Parents  []string
}

// UpdateRequest holds a metadata patch and parent changes for an UPDATE call.
type UpdateRequest struct {
	// Name renames the object when non-empty
	Name string

	// AddParents are parent IDs to add
	AddParents []string

	// RemoveParents are parent IDs to remove
	RemoveParents []string
}
