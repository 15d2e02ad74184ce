package adapter

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

var (
	queryNameRe   = regexp.MustCompile(`name = '((?:[^'\\]|\\.)*)'`)
	queryParentRe = regexp.MustCompile(`'((?:[^'\\]|\\.)*)' in parents`)
	queryUnescape = strings.NewReplacer(`\'`, `'`, `\\`, `\`)
)

type fakeDriveFile struct {
	ID       string
	Name     string
	MimeType string
	Parent   string
	Modified time.Time
	Content  []byte
}

// fakeDrive is an in-memory stand-in for the subset of the Drive v3 API the
// adapter talks to.
type fakeDrive struct {
	t *testing.T

	mu       sync.Mutex
	files    map[string]*fakeDriveFile
	nextID   int
	clock    time.Time
	pageSize int
	token    string
	requests []string

	// failStatus forces every request to answer with this status when set.
	failStatus int
}

func newFakeDrive(t *testing.T) (*fakeDrive, *httptest.Server) {
	t.Helper()
	f := &fakeDrive{
		t:        t,
		files:    make(map[string]*fakeDriveFile),
		clock:    time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		pageSize: 2,
		token:    "test-token",
	}

	r := chi.NewRouter()
	r.Use(f.middleware)
	r.Get("/drive/v3/files", f.list)
	r.Post("/drive/v3/files", f.createFolder)
	r.Get("/drive/v3/files/{fileID}", f.download)
	r.Post("/upload/drive/v3/files", f.createFile)
	r.Patch("/upload/drive/v3/files/{fileID}", f.patchFile)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeDrive) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		status := f.failStatus
		f.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeDrive) setFailStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

func (f *fakeDrive) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// put stores a file directly, bypassing HTTP.
func (f *fakeDrive) put(name, parent, mimeType string, content []byte) *fakeDriveFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putLocked(name, parent, mimeType, content)
}

func (f *fakeDrive) putLocked(name, parent, mimeType string, content []byte) *fakeDriveFile {
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	file := &fakeDriveFile{
		ID:       fmt.Sprintf("file-%03d", f.nextID),
		Name:     name,
		MimeType: mimeType,
		Parent:   parent,
		Modified: f.clock,
		Content:  content,
	}
	f.files[file.ID] = file
	return file
}

func (f *fakeDrive) byName(name, parent string) []*fakeDriveFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeDriveFile
	for _, file := range f.files {
		if file.Name == name && file.Parent == parent {
			out = append(out, file)
		}
	}
	return out
}

func (f *fakeDrive) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	name, hasName := "", false
	if m := queryNameRe.FindStringSubmatch(q); m != nil {
		name, hasName = queryUnescape.Replace(m[1]), true
	}
	parent := ""
	if m := queryParentRe.FindStringSubmatch(q); m != nil {
		parent = queryUnescape.Replace(m[1])
	}
	foldersOnly := strings.Contains(q, "mimeType = '"+driveFolderMimeType+"'")

	f.mu.Lock()
	var matched []*fakeDriveFile
	for _, file := range f.files {
		if hasName && file.Name != name {
			continue
		}
		if file.Parent != parent {
			continue
		}
		if foldersOnly && file.MimeType != driveFolderMimeType {
			continue
		}
		matched = append(matched, file)
	}
	pageSize := f.pageSize
	f.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	end := min(start+pageSize, len(matched))

	page := driveFileList{Files: []driveFile{}}
	for _, file := range matched[start:end] {
		page.Files = append(page.Files, driveFile{ID: file.ID, Name: file.Name, ModifiedTime: file.Modified})
	}
	if end < len(matched) {
		page.NextPageToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (f *fakeDrive) createFolder(w http.ResponseWriter, r *http.Request) {
	var meta driveFileMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil || len(meta.Parents) != 1 {
		http.Error(w, "bad metadata", http.StatusBadRequest)
		return
	}
	file := f.put(meta.Name, meta.Parents[0], meta.MimeType, nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(driveFile{ID: file.ID, Name: file.Name, ModifiedTime: file.Modified})
}

func (f *fakeDrive) createFile(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("uploadType") != "multipart" {
		http.Error(w, "uploadType must be multipart", http.StatusBadRequest)
		return
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/related" {
		http.Error(w, "expected multipart/related", http.StatusBadRequest)
		return
	}

	mr := multipart.NewReader(r.Body, params["boundary"])
	metaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, "missing metadata part", http.StatusBadRequest)
		return
	}
	var meta driveFileMetadata
	if err = json.NewDecoder(metaPart).Decode(&meta); err != nil || len(meta.Parents) != 1 {
		http.Error(w, "bad metadata", http.StatusBadRequest)
		return
	}
	mediaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, "missing media part", http.StatusBadRequest)
		return
	}
	content, _ := io.ReadAll(mediaPart)

	file := f.put(meta.Name, meta.Parents[0], meta.MimeType, content)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(driveFile{ID: file.ID, Name: file.Name, ModifiedTime: file.Modified})
}

func (f *fakeDrive) patchFile(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("uploadType") != "media" {
		http.Error(w, "uploadType must be media", http.StatusBadRequest)
		return
	}
	content, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	file, ok := f.files[chi.URLParam(r, "fileID")]
	if ok {
		f.clock = f.clock.Add(time.Second)
		file.Content = content
		file.Modified = f.clock
	}
	f.mu.Unlock()

	if !ok {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(driveFile{ID: file.ID, Name: file.Name, ModifiedTime: file.Modified})
}

func (f *fakeDrive) download(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("alt") != "media" {
		http.Error(w, "alt=media required", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	file, ok := f.files[chi.URLParam(r, "fileID")]
	var content []byte
	if ok {
		content = append(content, file.Content...)
	}
	f.mu.Unlock()

	if !ok {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", driveJSONMimeType)
	_, _ = w.Write(content)
}
