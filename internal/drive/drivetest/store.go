package drivetest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/teemow/drivepath/internal/drive"
)

const defaultPageSize = 100

// Calls counts invocations per operation.
type Calls struct {
	List     int
	Get      int
	Create   int
	Update   int
	Delete   int
	Download int
	Export   int
}

// Total returns the number of remote calls of any kind.
func (c Calls) Total() int {
	return c.List + c.Get + c.Create + c.Update + c.Delete + c.Download + c.Export
}

// Store is an in-memory Drive. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	rootID   string
	objects  map[string]*drive.RemoteObject
	order    []string
	content  map[string][]byte
	exports  map[string]map[string][]byte
	failures map[string]error
	updates  []UpdateCall
	nextID   int
	calls    Calls
	now      time.Time
}

// UpdateCall records the arguments of one Update.
type UpdateCall struct {
	ID  string
	Req drive.UpdateRequest
}

// New returns a store whose root folder has the ID "root".
func New() *Store {
	return NewWithRootID(drive.RootID)
}

// NewWithRootID returns a store whose root folder has the given real ID.
// The alias "root" still resolves to it, as in the real API.
func NewWithRootID(rootID string) *Store {
	s := &Store{
		rootID:   rootID,
		objects:  map[string]*drive.RemoteObject{},
		content:  map[string][]byte{},
		exports:  map[string]map[string][]byte{},
		failures: map[string]error{},
		now:      time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	s.objects[rootID] = &drive.RemoteObject{
		ID:       rootID,
		Name:     "My Drive",
		MimeType: drive.FolderMimeType,
		Kind:     drive.KindFolder,
		Sharing:  drive.Sharing{OwnedByMe: true},
	}
	s.order = append(s.order, rootID)
	return s
}

// RootID returns the real ID of the root folder.
func (s *Store) RootID() string {
	return s.rootID
}

func (s *Store) resolveAlias(id string) string {
	if id == drive.RootID {
		return s.rootID
	}
	return id
}

func (s *Store) newID() string {
	s.nextID++
	return "id-" + strconv.Itoa(s.nextID)
}

func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

// AddFolder adds a folder under parentID and returns a copy of it.
func (s *Store) AddFolder(name, parentID string) *drive.RemoteObject {
	return s.AddObject(&drive.RemoteObject{
		Name:     name,
		MimeType: drive.FolderMimeType,
		Parents:  []string{parentID},
	})
}

// AddFile adds a file with content under parentID and returns a copy of it.
func (s *Store) AddFile(name, parentID, mimeType string, content []byte) *drive.RemoteObject {
	obj := s.AddObject(&drive.RemoteObject{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{parentID},
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[obj.ID] = append([]byte(nil), content...)
	if obj.Kind == drive.KindFile {
		size := int64(len(content))
		s.objects[obj.ID].Size = &size
	}
	return clone(s.objects[obj.ID])
}

// AddObject adds obj as-is. Missing ID, Kind and timestamps are filled in,
// and ownership defaults to the authenticated user.
func (s *Store) AddObject(obj *drive.RemoteObject) *drive.RemoteObject {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := clone(obj)
	if o.ID == "" {
		o.ID = s.newID()
	}
	if o.Kind == "" {
		o.Kind = drive.KindOf(o.MimeType)
	}
	if o.CreatedTime.IsZero() {
		o.CreatedTime = s.tick()
	}
	if o.ModifiedTime.IsZero() {
		o.ModifiedTime = o.CreatedTime
	}
	if !o.Sharing.Shared {
		o.Sharing.OwnedByMe = true
	}
	for i, p := range o.Parents {
		o.Parents[i] = s.resolveAlias(p)
	}

	s.objects[o.ID] = o
	s.order = append(s.order, o.ID)
	return clone(o)
}

// SetExport sets the content returned when id is exported as mimeType.
func (s *Store) SetExport(id, mimeType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exports[id] == nil {
		s.exports[id] = map[string][]byte{}
	}
	s.exports[id][mimeType] = data
}

// Fail makes op ("list", "get", "create", "update", "download", "export")
// fail with err for the object id. For "list" the id is the parent ID
// named by an "in parents" condition; for "create" it is the parent ID.
func (s *Store) Fail(op, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+id] = err
}

// ClearFailures removes all injected failures.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]error{}
}

func (s *Store) failure(op, id string) error {
	return s.failures[op+":"+id]
}

// Calls returns the call counters.
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ResetCalls zeroes the call counters and the update log.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = Calls{}
	s.updates = nil
}

// Updates returns the recorded Update calls in order.
func (s *Store) Updates() []UpdateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UpdateCall(nil), s.updates...)
}

// Object returns a copy of the object with the given ID, or nil.
func (s *Store) Object(id string) *drive.RemoteObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[s.resolveAlias(id)]
	if !ok {
		return nil
	}
	return clone(o)
}

// Children returns copies of the direct, untrashed children of parentID in insertion order.
func (s *Store) Children(parentID string) []*drive.RemoteObject {
	s.mu.Lock()
	defer s.mu.Unlock()

	parentID = s.resolveAlias(parentID)
	var out []*drive.RemoteObject
	for _, id := range s.order {
		o := s.objects[id]
		if o != nil && !o.Trashed && o.HasParent(parentID) {
			out = append(out, clone(o))
		}
	}
	return out
}

func notFound(op, id string) error {
	return &drive.RemoteError{
		Op:         op,
		StatusCode: http.StatusNotFound,
		Body:       "File not found: " + id,
	}
}

func forbidden(op, msg string) error {
	return &drive.RemoteError{Op: op, StatusCode: http.StatusForbidden, Body: msg}
}

// List evaluates req.Query against all objects.
func (s *Store) List(ctx context.Context, req drive.ListRequest) (*drive.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.List++

	pred, err := compile(req.Query)
	if err != nil {
		return nil, &drive.RemoteError{Op: "list", StatusCode: http.StatusBadRequest, Body: "Invalid Value: " + err.Error()}
	}
	for _, parent := range pred.parents() {
		if ferr := s.failure("list", s.resolveAlias(parent)); ferr != nil {
			return nil, ferr
		}
	}

	var matched []*drive.RemoteObject
	for _, id := range s.order {
		o := s.objects[id]
		if o == nil || id == s.rootID {
			continue
		}
		if pred.match(s, o) {
			matched = append(matched, o)
		}
	}

	if req.OrderBy != "" {
		sortObjects(matched, req.OrderBy)
	}

	offset := 0
	if req.PageToken != "" {
		offset, err = strconv.Atoi(req.PageToken)
		if err != nil || offset < 0 || offset > len(matched) {
			return nil, &drive.RemoteError{Op: "list", StatusCode: http.StatusBadRequest, Body: "Invalid page token"}
		}
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	end := offset + pageSize
	result := &drive.ListResult{}
	if end < len(matched) {
		result.NextPageToken = strconv.Itoa(end)
	} else {
		end = len(matched)
	}
	for _, o := range matched[offset:end] {
		result.Objects = append(result.Objects, clone(o))
	}

	return result, nil
}

// sortObjects supports the "folder" and "name" keys used by the adapter.
func sortObjects(objs []*drive.RemoteObject, orderBy string) {
	sort.SliceStable(objs, func(i, j int) bool {
		if orderBy == "folder,name" && objs[i].IsFolder() != objs[j].IsFolder() {
			return objs[i].IsFolder()
		}
		return objs[i].Name < objs[j].Name
	})
}

// Get returns the object with the given ID. "root" is an alias of the root folder.
func (s *Store) Get(ctx context.Context, id string) (*drive.RemoteObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Get++

	id = s.resolveAlias(id)
	if err := s.failure("get", id); err != nil {
		return nil, err
	}
	o, ok := s.objects[id]
	if !ok {
		return nil, notFound("get", id)
	}
	return clone(o), nil
}

// Create adds a new object. Parents must exist.
func (s *Store) Create(ctx context.Context, req drive.CreateRequest) (*drive.RemoteObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Create++

	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	parents := make([]string, 0, len(req.Parents))
	for _, p := range req.Parents {
		p = s.resolveAlias(p)
		if err := s.failure("create", p); err != nil {
			return nil, err
		}
		if _, ok := s.objects[p]; !ok {
			return nil, notFound("create", p)
		}
		parents = append(parents, p)
	}
	if len(parents) == 0 {
		parents = []string{s.rootID}
	}

	created := s.tick()
	o := &drive.RemoteObject{
		ID:           s.newID(),
		Name:         req.Name,
		MimeType:     req.MimeType,
		Kind:         drive.KindOf(req.MimeType),
		Parents:      parents,
		CreatedTime:  created,
		ModifiedTime: created,
		Sharing:      drive.Sharing{OwnedByMe: true},
	}
	s.objects[o.ID] = o
	s.order = append(s.order, o.ID)
	return clone(o), nil
}

// Update applies a rename and parent changes.
func (s *Store) Update(ctx context.Context, id string, req drive.UpdateRequest) (*drive.RemoteObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Update++
	s.updates = append(s.updates, UpdateCall{ID: id, Req: req})

	id = s.resolveAlias(id)
	if err := s.failure("update", id); err != nil {
		return nil, err
	}
	o, ok := s.objects[id]
	if !ok {
		return nil, notFound("update", id)
	}
	for _, p := range req.AddParents {
		if _, ok := s.objects[s.resolveAlias(p)]; !ok {
			return nil, notFound("update", p)
		}
	}

	if req.Name != "" {
		o.Name = req.Name
	}
	if len(req.RemoveParents) > 0 {
		remove := map[string]bool{}
		for _, p := range req.RemoveParents {
			remove[s.resolveAlias(p)] = true
		}
		kept := o.Parents[:0]
		for _, p := range o.Parents {
			if !remove[p] {
				kept = append(kept, p)
			}
		}
		o.Parents = kept
	}
	for _, p := range req.AddParents {
		p = s.resolveAlias(p)
		if !o.HasParent(p) {
			o.Parents = append(o.Parents, p)
		}
	}
	o.ModifiedTime = s.tick()

	return clone(o), nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Delete++

	id = s.resolveAlias(id)
	if _, ok := s.objects[id]; !ok {
		return notFound("delete", id)
	}
	delete(s.objects, id)
	delete(s.content, id)
	return nil
}

// Download returns the raw content of a regular file.
func (s *Store) Download(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Download++

	if err := s.failure("download", id); err != nil {
		return nil, err
	}
	o, ok := s.objects[s.resolveAlias(id)]
	if !ok {
		return nil, notFound("download", id)
	}
	if o.Kind != drive.KindFile {
		return nil, forbidden("download", "Only files with binary content can be downloaded. Use Export with Docs Editors files.")
	}
	return append([]byte(nil), s.content[o.ID]...), nil
}

// Export returns the content registered with SetExport, or the stored content.
func (s *Store) Export(ctx context.Context, id, mimeType string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Export++

	if err := s.failure("export", id); err != nil {
		return nil, err
	}
	o, ok := s.objects[s.resolveAlias(id)]
	if !ok {
		return nil, notFound("export", id)
	}
	if o.Kind != drive.KindDocument {
		return nil, forbidden("export", "Export only supports Docs Editors files.")
	}
	if data, ok := s.exports[o.ID][mimeType]; ok {
		return append([]byte(nil), data...), nil
	}
	return append([]byte(nil), s.content[o.ID]...), nil
}

func clone(o *drive.RemoteObject) *drive.RemoteObject {
	c := *o
	c.Parents = append([]string(nil), o.Parents...)
	if o.Size != nil {
		size := *o.Size
		c.Size = &size
	}
	return &c
}
