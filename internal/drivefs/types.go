package drivefs

import (
	"time"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/resolver"
)

// SharingStatus summarizes who can see an object.
type SharingStatus string

const (
	SharingPrivate SharingStatus = "private"
	SharingShared  SharingStatus = "shared"
	SharingPublic  SharingStatus = "public"
)

// CanonicalFile is the caller-facing view of a Drive object.
type CanonicalFile struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	MimeType      string        `json:"mimeType"`
	Size          *int64        `json:"size,omitempty"`
	CreatedTime   time.Time     `json:"createdTime"`
	ModifiedTime  time.Time     `json:"modifiedTime"`
	Parents       []string      `json:"parents"`
	Path          string        `json:"path"`
	IsFolder      bool          `json:"isFolder"`
	IsShared      bool          `json:"isShared"`
	SharingStatus SharingStatus `json:"sharingStatus"`
	FolderDepth   int           `json:"folderDepth"`
}

func sharingStatus(s drive.Sharing) SharingStatus {
	switch {
	case s.Public:
		return SharingPublic
	case s.Shared || !s.OwnedByMe:
		return SharingShared
	default:
		return SharingPrivate
	}
}

func newCanonicalFile(obj *drive.RemoteObject, path string) CanonicalFile {
	parents := obj.Parents
	if parents == nil {
		parents = []string{}
	}
	return CanonicalFile{
		ID:            obj.ID,
		Name:          obj.Name,
		MimeType:      obj.MimeType,
		Size:          obj.Size,
		CreatedTime:   obj.CreatedTime,
		ModifiedTime:  obj.ModifiedTime,
		Parents:       parents,
		Path:          path,
		IsFolder:      obj.IsFolder(),
		IsShared:      obj.Sharing.Shared,
		SharingStatus: sharingStatus(obj.Sharing),
		FolderDepth:   resolver.Depth(path),
	}
}
