package drivetest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/query"
)

func TestStore_ListEvaluatesQueries(t *testing.T) {
	s := New()
	docs := s.AddFolder("Docs", drive.RootID)
	report := s.AddFile("report.pdf", docs.ID, "application/pdf", []byte("quarterly numbers"))
	s.AddFile("O'Brien notes.txt", docs.ID, "text/plain", []byte("hello"))
	s.AddObject(&drive.RemoteObject{Name: "old.txt", MimeType: "text/plain", Parents: []string{docs.ID}, Trashed: true})
	s.AddObject(&drive.RemoteObject{Name: "shared.txt", MimeType: "text/plain", Parents: []string{docs.ID}, Sharing: drive.Sharing{Shared: true}})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "root children",
			query: query.New().InParents(drive.RootID).Trashed(false).Build(),
			want:  []string{"Docs"},
		},
		{
			name:  "exact name with escaped quote",
			query: query.New().InParents(docs.ID).NameEquals("O'Brien notes.txt").Build(),
			want:  []string{"O'Brien notes.txt"},
		},
		{
			name:  "untrashed children",
			query: query.New().InParents(docs.ID).Trashed(false).Build(),
			want:  []string{"report.pdf", "O'Brien notes.txt", "shared.txt"},
		},
		{
			name:  "owned by me",
			query: query.New().InParents(docs.ID).Trashed(false).OwnedByMe().Build(),
			want:  []string{"report.pdf", "O'Brien notes.txt"},
		},
		{
			name:  "full text matches content",
			query: query.New().FullTextContains("quarterly").Build(),
			want:  []string{"report.pdf"},
		},
		{
			name:  "or inside parentheses",
			query: query.New().InParents(docs.ID).NameOrFullTextContains("brien").Build(),
			want:  []string{"O'Brien notes.txt"},
		},
		{
			name:  "not folder",
			query: "not mimeType = 'application/vnd.google-apps.folder' and name contains 'RE'",
			want:  []string{"report.pdf", "shared.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.List(context.Background(), drive.ListRequest{Query: tt.query})
			require.NoError(t, err)

			var names []string
			for _, o := range res.Objects {
				names = append(names, o.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	assert.NotNil(t, report.Size)
}

func TestStore_ListInvalidQuery(t *testing.T) {
	s := New()
	_, err := s.List(context.Background(), drive.ListRequest{Query: "name = 'unterminated"})

	var remote *drive.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
}

func TestStore_ListPaging(t *testing.T) {
	s := New()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.AddFolder(name, drive.RootID)
	}

	var names []string
	token := ""
	pages := 0
	for {
		res, err := s.List(context.Background(), drive.ListRequest{
			Query:     query.New().InParents(drive.RootID).Build(),
			PageSize:  2,
			PageToken: token,
		})
		require.NoError(t, err)
		pages++
		for _, o := range res.Objects {
			names = append(names, o.Name)
		}
		if res.NextPageToken == "" {
			break
		}
		token = res.NextPageToken
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
	assert.Equal(t, 3, pages)
	assert.Equal(t, 3, s.Calls().List)
}

func TestStore_RootAlias(t *testing.T) {
	s := NewWithRootID("0AExampleRoot")
	folder := s.AddFolder("Projects", drive.RootID)
	assert.Equal(t, []string{"0AExampleRoot"}, folder.Parents)

	root, err := s.Get(context.Background(), drive.RootID)
	require.NoError(t, err)
	assert.Equal(t, "0AExampleRoot", root.ID)

	res, err := s.List(context.Background(), drive.ListRequest{Query: query.New().InParents(drive.RootID).Build()})
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	assert.Equal(t, "Projects", res.Objects[0].Name)
}

func TestStore_UpdateMovesAndRenames(t *testing.T) {
	s := New()
	a := s.AddFolder("A", drive.RootID)
	b := s.AddFolder("B", drive.RootID)
	f := s.AddFile("f.txt", a.ID, "text/plain", nil)

	updated, err := s.Update(context.Background(), f.ID, drive.UpdateRequest{
		Name:          "g.txt",
		AddParents:    []string{b.ID},
		RemoveParents: []string{a.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "g.txt", updated.Name)
	assert.Equal(t, []string{b.ID}, updated.Parents)
	assert.Len(t, s.Updates(), 1)

	_, err = s.Update(context.Background(), f.ID, drive.UpdateRequest{AddParents: []string{"missing"}})
	assert.True(t, drive.IsNotFound(err))
}

func TestStore_DownloadAndExport(t *testing.T) {
	s := New()
	doc := s.AddFile("Plan", drive.RootID, drive.DocumentMimeType, []byte("stored"))
	bin := s.AddFile("blob.bin", drive.RootID, "application/octet-stream", []byte{0, 1, 2})
	s.SetExport(doc.ID, "text/plain", []byte("exported text"))

	data, err := s.Download(context.Background(), bin.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, data)

	_, err = s.Download(context.Background(), doc.ID)
	var remote *drive.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusForbidden, remote.StatusCode)

	data, err = s.Export(context.Background(), doc.ID, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "exported text", string(data))

	data, err = s.Export(context.Background(), doc.ID, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "stored", string(data))
}

func TestStore_FailureInjection(t *testing.T) {
	s := New()
	a := s.AddFolder("A", drive.RootID)
	boom := errors.New("boom")
	s.Fail("list", a.ID, boom)
	s.Fail("get", a.ID, boom)

	_, err := s.List(context.Background(), drive.ListRequest{Query: query.New().InParents(a.ID).Build()})
	assert.ErrorIs(t, err, boom)

	_, err = s.Get(context.Background(), a.ID)
	assert.ErrorIs(t, err, boom)

	s.ClearFailures()
	_, err = s.Get(context.Background(), a.ID)
	assert.NoError(t, err)
}

func TestStore_GetMissing(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "nope")
	assert.True(t, drive.IsNotFound(err))
	assert.Contains(t, err.Error(), "File not found: nope")
}
