package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-protocol-sync/internal/auth"
	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const (
	driveFilesPath  = "/drive/v3/files"
	driveUploadPath = "/upload/drive/v3/files"

	driveFolderMimeType = "application/vnd.google-apps.folder"
	driveJSONMimeType   = "application/json"
	driveRootParent     = "root"

	driveListFields   = "nextPageToken, files(id, name, modifiedTime)"
	driveFileFields   = "id, name, modifiedTime"
	driveListPageSize = "1000"
)

type driveFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

type driveFileList struct {
	NextPageToken string      `json:"nextPageToken"`
	Files         []driveFile `json:"files"`
}

type driveFileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents"`
}

type driveRemoteStore struct {
	client     *utils.HTTPClient
	tokens     auth.Provider
	rootFolder string

	mu     sync.Mutex
	folder *models.RemoteFolder

	logger *logger.Logger
}

// NewDriveRemoteStore constructs the Drive REST implementation of
// [RemoteStore]. It normalises the base URL from cfg.HTTPAddress and
// authenticates every request with a bearer token from tokens.
//
// Returns an error if cfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewDriveRemoteStore(cfg config.ClientAdapter, tokens auth.Provider, logger *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &driveRemoteStore{
		client:     utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		tokens:     tokens,
		rootFolder: cfg.RootFolder,
		logger:     logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// EnsureRootReady implements [RemoteStore]. Missing folders are created
// under the account's drive root.
func (d *driveRemoteStore) EnsureRootReady(ctx context.Context) (models.RemoteFolder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.folder != nil {
		return *d.folder, nil
	}

	rootID, err := d.ensureFolder(ctx, d.rootFolder, driveRootParent)
	if err != nil {
		return models.RemoteFolder{}, fmt.Errorf("ensure folder %q: %w", d.rootFolder, err)
	}
	recordsID, err := d.ensureFolder(ctx, RecordsFolderName, rootID)
	if err != nil {
		return models.RemoteFolder{}, fmt.Errorf("ensure folder %q: %w", RecordsFolderName, err)
	}

	d.folder = &models.RemoteFolder{ID: recordsID, Name: RecordsFolderName}
	return *d.folder, nil
}

// ListRecords implements [RemoteStore]. Results are paged through until the
// server stops returning a page token.
func (d *driveRemoteStore) ListRecords(ctx context.Context, folder models.RemoteFolder) ([]models.RemoteFileRef, error) {
	files, err := d.search(ctx, fmt.Sprintf("%s in parents and trashed = false", quoteDriveQuery(folder.ID)))
	if err != nil {
		return nil, err
	}

	refs := make([]models.RemoteFileRef, 0, len(files))
	for _, f := range files {
		if f.Name == models.DeviceRegistryName {
			continue
		}
		ref, err := models.NewRemoteFileRef(f.ID, f.Name, f.ModifiedTime)
		if err != nil {
			d.logger.Debug().
				Str("func", "driveRemoteStore.ListRecords").
				Str("file_id", f.ID).
				Str("name", f.Name).
				Msg("skipping object with foreign name")
			continue
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// Download implements [RemoteStore].
func (d *driveRemoteStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	req, err := d.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.
		SetPathParam("fileID", fileID).
		SetQueryParam("alt", "media").
		Get(driveFilesPath + "/{fileID}")
	if err != nil {
		return nil, wrapTransportError("download request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return resp.Body(), nil
}

// Upload implements [RemoteStore]. An object with the same name in folder is
// patched in place; otherwise a new object is created.
func (d *driveRemoteStore) Upload(ctx context.Context, name string, data []byte, folder models.RemoteFolder) (time.Time, error) {
	existing, err := d.findFile(ctx, name, folder.ID)
	if err != nil {
		return time.Time{}, err
	}

	var written driveFile
	if existing != nil {
		written, err = d.patchContent(ctx, existing.ID, data)
	} else {
		written, err = d.createFile(ctx, name, data, folder.ID)
	}
	if err != nil {
		return time.Time{}, err
	}
	return written.ModifiedTime, nil
}

// FetchDeviceRegistry implements [RemoteStore].
func (d *driveRemoteStore) FetchDeviceRegistry(ctx context.Context, folder models.RemoteFolder) (models.DeviceRegistryDocument, error) {
	f, err := d.findFile(ctx, models.DeviceRegistryName, folder.ID)
	if err != nil {
		return models.DeviceRegistryDocument{}, err
	}
	if f == nil {
		return models.DeviceRegistryDocument{}, nil
	}

	data, err := d.Download(ctx, f.ID)
	if err != nil {
		return models.DeviceRegistryDocument{}, err
	}
	return decodeDeviceRegistry(data)
}

// UpdateDeviceRegistry implements [RemoteStore].
func (d *driveRemoteStore) UpdateDeviceRegistry(ctx context.Context, folder models.RemoteFolder, doc models.DeviceRegistryDocument) error {
	data, err := encodeDeviceRegistry(doc)
	if err != nil {
		return err
	}
	_, err = d.Upload(ctx, models.DeviceRegistryName, data, folder)
	return err
}

func (d *driveRemoteStore) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	files, err := d.search(ctx, fmt.Sprintf("name = %s and %s in parents and mimeType = %s and trashed = false",
		quoteDriveQuery(name), quoteDriveQuery(parentID), quoteDriveQuery(driveFolderMimeType)))
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		return files[0].ID, nil
	}

	req, err := d.authedRequest(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetHeader("Content-Type", driveJSONMimeType).
		SetBody(driveFileMetadata{Name: name, MimeType: driveFolderMimeType, Parents: []string{parentID}}).
		Post(driveFilesPath)
	if err != nil {
		return "", wrapTransportError("create folder request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var created driveFile
	if err = json.Unmarshal(resp.Body(), &created); err != nil || created.ID == "" {
		return "", fmt.Errorf("%w: decode created folder: %v", models.ErrMalformedRemoteData, err)
	}

	d.logger.Info().
		Str("func", "driveRemoteStore.ensureFolder").
		Str("file_id", created.ID).
		Str("name", name).
		Msg("created remote folder")
	return created.ID, nil
}

func (d *driveRemoteStore) findFile(ctx context.Context, name, parentID string) (*driveFile, error) {
	files, err := d.search(ctx, fmt.Sprintf("name = %s and %s in parents and trashed = false",
		quoteDriveQuery(name), quoteDriveQuery(parentID)))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return &files[0], nil
}

func (d *driveRemoteStore) search(ctx context.Context, query string) ([]driveFile, error) {
	var (
		files     []driveFile
		pageToken string
	)

	for {
		req, err := d.authedRequest(ctx)
		if err != nil {
			return nil, err
		}
		req.SetQueryParams(map[string]string{
			"q":        query,
			"fields":   driveListFields,
			"pageSize": driveListPageSize,
			"spaces":   "drive",
		})
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}

		resp, err := req.Get(driveFilesPath)
		if err != nil {
			return nil, wrapTransportError("list files request", err)
		}
		if err = mapHTTPError(resp); err != nil {
			return nil, err
		}

		var page driveFileList
		if err = json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("%w: decode file list: %v", models.ErrMalformedRemoteData, err)
		}
		files = append(files, page.Files...)

		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

func (d *driveRemoteStore) createFile(ctx context.Context, name string, data []byte, parentID string) (driveFile, error) {
	body, contentType, err := multipartRelated(driveFileMetadata{
		Name:     name,
		MimeType: driveJSONMimeType,
		Parents:  []string{parentID},
	}, data)
	if err != nil {
		return driveFile{}, err
	}

	req, err := d.authedRequest(ctx)
	if err != nil {
		return driveFile{}, err
	}
	resp, err := req.
		SetQueryParams(map[string]string{"uploadType": "multipart", "fields": driveFileFields}).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Post(driveUploadPath)
	if err != nil {
		return driveFile{}, wrapTransportError("create file request", err)
	}
	return decodeWrittenFile(resp)
}

func (d *driveRemoteStore) patchContent(ctx context.Context, fileID string, data []byte) (driveFile, error) {
	req, err := d.authedRequest(ctx)
	if err != nil {
		return driveFile{}, err
	}
	resp, err := req.
		SetPathParam("fileID", fileID).
		SetQueryParams(map[string]string{"uploadType": "media", "fields": driveFileFields}).
		SetHeader("Content-Type", driveJSONMimeType).
		SetBody(data).
		Patch(driveUploadPath + "/{fileID}")
	if err != nil {
		return driveFile{}, wrapTransportError("patch file request", err)
	}
	return decodeWrittenFile(resp)
}

// decodeWrittenFile reads the file resource a create or patch answers with.
// The write already happened once the status is 2xx, so an unreadable body
// only loses the modified time.
func decodeWrittenFile(resp *resty.Response) (driveFile, error) {
	if err := mapHTTPError(resp); err != nil {
		return driveFile{}, err
	}

	var written driveFile
	if len(resp.Body()) > 0 {
		_ = json.Unmarshal(resp.Body(), &written)
	}
	return written, nil
}

func (d *driveRemoteStore) authedRequest(ctx context.Context) (*resty.Request, error) {
	token, err := d.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrAuthenticationRequired, err)
	}
	return d.client.R().SetContext(ctx).SetAuthToken(token), nil
}

// multipartRelated encodes metadata and content as the two parts of a
// multipart/related upload.
func multipartRelated(meta driveFileMetadata, data []byte) ([]byte, string, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("encode file metadata: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	if _, err = part.Write(metaJSON); err != nil {
		return nil, "", err
	}

	part, err = w.CreatePart(textproto.MIMEHeader{"Content-Type": {driveJSONMimeType}})
	if err != nil {
		return nil, "", err
	}
	if _, err = part.Write(data); err != nil {
		return nil, "", err
	}

	if err = w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "multipart/related; boundary=" + w.Boundary(), nil
}

// quoteDriveQuery renders s as a single-quoted Drive query literal.
func quoteDriveQuery(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}
