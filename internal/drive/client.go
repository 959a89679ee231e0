package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/logging"
)

const (
	fileFields = "id, name, mimeType, size, createdTime, modifiedTime, parents, trashed, shared, ownedByMe, permissionIds"
	listFields = "nextPageToken, files(" + fileFields + ")"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Endpoint overrides the Drive REST base URL (tests, proxies)
	Endpoint string

	// Transport is the base transport under the bearer-token transport.
	// Defaults to an HTTP/1.1 transport. It is wrapped with otelhttp so
	// every HTTP attempt gets a client span.
	Transport http.RoundTripper

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Client is an authenticated façade over the Drive v3 REST surface.
// Every call first makes the credential fresh, and a 401 response triggers
// exactly one refresh-and-retry cycle.
type Client struct {
	service *drive.Service
	tokens  *TokenManager
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a Drive client that authenticates with tokens.
func NewClient(ctx context.Context, tokens *TokenManager, cfg ClientConfig) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}

	base := cfg.Transport
	if base == nil {
		// Force HTTP/1.1 by disabling HTTP/2
		base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: tokens, Base: otelhttp.NewTransport(base)},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		service: service,
		tokens:  tokens,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// Tokens returns the client's token manager.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// call runs fn with a fresh credential and retries it once after a 401.
func (c *Client) call(ctx context.Context, op, id string, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, span := instrumentation.StartDriveSpan(ctx, op,
		instrumentation.NewSpanAttributeBuilder().WithFileID(id).Build()...)
	defer span.End()

	err := c.tokens.EnsureFresh(ctx)
	if err == nil {
		gen := c.tokens.generationNow()
		err = fn(ctx)

		if isUnauthorized(err) && c.tokens.CanRefresh() {
			c.logger.Debug("remote rejected credential, refreshing",
				logging.Operation(op))
			span.SetAttributes(attribute.Bool(instrumentation.SpanAttrRetried, true))
			instrumentation.AddSpanEvent(span, "token.refresh")

			if rerr := c.tokens.refreshAfterUnauthorized(ctx, gen); rerr != nil {
				err = rerr
			} else {
				err = fn(ctx)
			}
		}
	}

	err = toRemoteError(op, err)

	status := instrumentation.StatusSuccess
	code := 0
	if err != nil {
		status = instrumentation.StatusError
		var re *RemoteError
		if errors.As(err, &re) {
			code = re.StatusCode
		}
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordDriveOperation(ctx, op, status, code, time.Since(start))

	return err
}

func isUnauthorized(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized
}

// toRemoteError maps googleapi and transport errors to RemoteError.
// Authentication errors and context cancellation pass through unchanged.
func toRemoteError(op string, err error) error {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := strings.TrimSpace(gerr.Body)
		if body == "" {
			body = gerr.Message
		}
		return &RemoteError{Op: op, StatusCode: gerr.Code, Body: body, Err: err}
	}

	return &RemoteError{Op: op, Err: err}
}

// List issues one LIST call.
func (c *Client) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	var result *ListResult

	err := c.call(ctx, instrumentation.OperationList, "", func(ctx context.Context) error {
		call := c.service.Files.List().
			Context(ctx).
			Fields(listFields)

		if req.Query != "" {
			call = call.Q(req.Query)
		}
		if req.PageSize > 0 {
			call = call.PageSize(int64(req.PageSize))
		}
		if req.PageToken != "" {
			call = call.PageToken(req.PageToken)
		}
		if req.OrderBy != "" {
			call = call.OrderBy(req.OrderBy)
		}

		fileList, err := call.Do()
		if err != nil {
			return err
		}

		result = &ListResult{
			Objects:       make([]*RemoteObject, len(fileList.Files)),
			NextPageToken: fileList.NextPageToken,
		}
		for i, f := range fileList.Files {
			result.Objects[i] = convertToRemoteObject(f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get retrieves the metadata of one object.
func (c *Client) Get(ctx context.Context, id string) (*RemoteObject, error) {
	if id == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	var obj *RemoteObject
	err := c.call(ctx, instrumentation.OperationGet, id, func(ctx context.Context) error {
		f, err := c.service.Files.Get(id).
			Context(ctx).
			Fields(fileFields).
			Do()
		if err != nil {
			return err
		}
		obj = convertToRemoteObject(f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// Create creates an object from metadata only.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*RemoteObject, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var obj *RemoteObject
	err := c.call(ctx, instrumentation.OperationCreate, "", func(ctx context.Context) error {
		f, err := c.service.Files.Create(&drive.File{
			Name:     req.Name,
			MimeType: req.MimeType,
			Parents:  req.Parents,
		}).
			Context(ctx).
			Fields(fileFields).
			Do()
		if err != nil {
			return err
		}
		obj = convertToRemoteObject(f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// Update patches metadata and parent membership in one call.
func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*RemoteObject, error) {
	if id == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	var obj *RemoteObject
	err := c.call(ctx, instrumentation.OperationUpdate, id, func(ctx context.Context) error {
		call := c.service.Files.Update(id, &drive.File{Name: req.Name}).
			Context(ctx).
			Fields(fileFields)

		if len(req.AddParents) > 0 {
			call = call.AddParents(strings.Join(req.AddParents, ","))
		}
		if len(req.RemoveParents) > 0 {
			call = call.RemoveParents(strings.Join(req.RemoveParents, ","))
		}

		f, err := call.Do()
		if err != nil {
			return err
		}
		obj = convertToRemoteObject(f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// Delete permanently deletes an object.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("fileID is required")
	}

	return c.call(ctx, instrumentation.OperationDelete, id, func(ctx context.Context) error {
		return c.service.Files.Delete(id).Context(ctx).Do()
	})
}

// Download returns the full raw content of a file.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	var data []byte
	err := c.call(ctx, instrumentation.OperationDownload, id, func(ctx context.Context) error {
		resp, err := c.service.Files.Get(id).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Export returns the content of a Workspace document converted to mimeType.
func (c *Client) Export(ctx context.Context, id, mimeType string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	if mimeType == "" {
		return nil, fmt.Errorf("export mimeType is required")
	}

	var data []byte
	err := c.call(ctx, instrumentation.OperationExport, id, func(ctx context.Context) error {
		resp, err := c.service.Files.Export(id, mimeType).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// convertToRemoteObject converts a Drive API File to a RemoteObject
func convertToRemoteObject(f *drive.File) *RemoteObject {
	obj := &RemoteObject{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Kind:     KindOf(f.MimeType),
		Parents:  f.Parents,
		Trashed:  f.Trashed,
		Sharing: Sharing{
			Shared:    f.Shared,
			OwnedByMe: f.OwnedByMe,
		},
	}

	// Folders and Workspace documents report no size
	if obj.Kind == KindFile {
		size := f.Size
		obj.Size = &size
	}

	for _, id := range f.PermissionIds {
		if id == "anyone" || id == "anyoneWithLink" {
			obj.Sharing.Public = true
		}
	}

	if f.CreatedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
			obj.CreatedTime = t
		}
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			obj.ModifiedTime = t
		}
	}

	return obj
}
