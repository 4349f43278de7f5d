// Package drive wraps the Google Drive and Sheets APIs behind the
// contracts.DriveClient capability.
package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/driveagent/driveagent/pkg/models"
)

// DefaultMaxFolders bounds the BFS traversal against reference cycles and
// runaway trees.
const DefaultMaxFolders = 10_000

const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime)"

// listFunc pages through one folder's direct children. The traversal in
// ListTree depends only on this seam, not on the Drive service, so tests
// can drive it with scripted trees.
type listFunc func(ctx context.Context, folderID string) ([]*drive.File, error)

// Client talks to Drive and Sheets with a service account.
type Client struct {
	files      *drive.Service
	sheets     *sheets.Service
	maxFolders int
	list       listFunc
}

// Option configures the client.
type Option func(*Client)

// WithMaxFolders overrides the traversal bound (default 10K).
func WithMaxFolders(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxFolders = n
		}
	}
}

// NewClient builds Drive and Sheets services from a credentials file.
func NewClient(ctx context.Context, credentialsFile string, opts ...Option) (*Client, error) {
	driveSvc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}

	sheetsSvc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := &Client{files: driveSvc, sheets: sheetsSvc, maxFolders: DefaultMaxFolders}
	c.list = c.listFolder
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// folderNode is one pending BFS entry: a folder id plus its path relative to
// the traversal root.
type folderNode struct {
	id   string
	path string
}

// ListTree walks the folder tree breadth-first. A FIFO queue plus a visited
// set keep the traversal iterative and cycle-safe; when the folder budget is
// hit the partial listing is returned with a warning. A folder that fails to
// list is logged and skipped without aborting the traversal.
func (c *Client) ListTree(ctx context.Context, rootFolderID string) ([]models.DriveFile, error) {
	var files []models.DriveFile

	queue := []folderNode{{id: rootFolderID, path: ""}}
	visited := map[string]bool{rootFolderID: true}
	folders := 0

	for len(queue) > 0 {
		if folders >= c.maxFolders {
			log.Warn().
				Int("max_folders", c.maxFolders).
				Int("files", len(files)).
				Msg("folder traversal bound hit, returning partial tree")
			break
		}

		node := queue[0]
		queue = queue[1:]
		folders++

		children, err := c.list(ctx, node.id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("folder_id", node.id).Str("path", node.path).Msg("folder listing failed, skipping")
			continue
		}

		for _, f := range children {
			if f.MimeType == models.MimeGoogleFolder {
				if visited[f.Id] {
					continue
				}
				visited[f.Id] = true
				queue = append(queue, folderNode{id: f.Id, path: joinPath(node.path, f.Name)})
				continue
			}
			files = append(files, models.DriveFile{
				ID:           f.Id,
				Name:         f.Name,
				MimeType:     f.MimeType,
				FolderPath:   node.path,
				ModifiedTime: f.ModifiedTime,
			})
		}
	}

	log.Info().Int("files", len(files)).Int("folders", folders).Msg("drive tree listed")
	return files, nil
}

// listFolder pages through one folder's children, retrying transient
// failures with exponential backoff.
func (c *Client) listFolder(ctx context.Context, folderID string) ([]*drive.File, error) {
	var all []*drive.File
	pageToken := ""

	for {
		var page *drive.FileList
		op := func() error {
			var err error
			page, err = c.files.Files.List().
				Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
				Fields(listFields).
				PageSize(1000).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		}

		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		if err := backoff.Retry(op, policy); err != nil {
			return nil, err
		}

		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// Download streams the file to dst. Drive-native formats are exported
// server-side to their portable MIME first; everything else is fetched
// as stored.
func (c *Client) Download(ctx context.Context, fileID, mimeType string, dst io.Writer) error {
	start := time.Now()

	var (
		resp *http.Response
		err  error
	)

	if exportMime, native := models.ExportMime(mimeType); native {
		resp, err = c.files.Files.Export(fileID, exportMime).Context(ctx).Download()
	} else {
		resp, err = c.files.Files.Get(fileID).Context(ctx).Download()
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	// Completion is signaled only once the body hits end-of-stream.
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", fileID, err)
	}

	log.Debug().
		Str("file_id", fileID).
		Int64("bytes", n).
		Dur("elapsed", time.Since(start)).
		Msg("file downloaded")
	return nil
}

// ReadSheet renders a native spreadsheet through the structured API: every
// sheet under a "[Sheet: name]" header, non-empty cells tab-joined per row.
func (c *Client) ReadSheet(ctx context.Context, fileID string) (string, error) {
	meta, err := c.sheets.Spreadsheets.Get(fileID).
		Fields("sheets(properties(title))").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("spreadsheet metadata %s: %w", fileID, err)
	}

	var sb strings.Builder
	for _, sh := range meta.Sheets {
		title := sh.Properties.Title
		values, err := c.sheets.Spreadsheets.Values.Get(fileID, title).Context(ctx).Do()
		if err != nil {
			log.Warn().Err(err).Str("file_id", fileID).Str("sheet", title).Msg("sheet values failed")
			continue
		}

		var lines []string
		for _, row := range values.Values {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				s := strings.TrimSpace(fmt.Sprint(cell))
				if s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
		if len(lines) == 0 {
			continue
		}
		sb.WriteString("[Sheet: " + title + "]\n")
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String()), nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
