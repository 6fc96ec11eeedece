package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Drive stores uploads in Google Drive, one sub-folder per logical folder
// below a root folder shared with the service account.
type Drive struct {
	client       *drive.Service
	rootFolderID string

	mu      sync.RWMutex
	folders map[string]string
}

// NewDrive authenticates with a service account credentials file.
func NewDrive(ctx context.Context, credentialsPath, rootFolderID string) (*Drive, error) {
	client, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath), option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Drive{
		client:       client,
		rootFolderID: rootFolderID,
		folders:      make(map[string]string),
	}, nil
}

func (d *Drive) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	parentID, err := d.folderID(ctx, SanitizeName(folder))
	if err != nil {
		return "", err
	}

	file, err := d.client.Files.Create(&drive.File{
		Name:     SanitizeName(filename),
		MimeType: contentType,
		Parents:  []string{parentID},
	}).Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("storage: drive upload: %w", err)
	}

	if _, err := d.client.Permissions.Create(file.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("storage: share drive file %s: %w", file.Id, err)
	}

	return fmt.Sprintf("https://drive.google.com/uc?id=%s", file.Id), nil
}

func (d *Drive) folderID(ctx context.Context, name string) (string, error) {
	d.mu.RLock()
	id, ok := d.folders[name]
	d.mu.RUnlock()
	if ok {
		return id, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.folders[name]; ok {
		return id, nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), folderMimeType, d.rootFolderID)
	list, err := d.client.Files.List().Q(query).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("storage: find drive folder %s: %w", name, err)
	}

	if len(list.Files) > 0 {
		d.folders[name] = list.Files[0].Id
		return list.Files[0].Id, nil
	}

	created, err := d.client.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{d.rootFolderID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("storage: create drive folder %s: %w", name, err)
	}

	d.folders[name] = created.Id
	return created.Id, nil
}
