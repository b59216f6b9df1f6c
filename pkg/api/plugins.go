package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/rubiojr/edjs/pkg/unfurl"
)

// multipart framing allowance on top of the upload limit
const multipartOverhead = 1 << 20

var errNoFile = pluginError("No file uploaded", nil)

func (s *Server) HandleAttaches(w http.ResponseWriter, r *http.Request) error {
	up, err := s.saveMultipart(w, r, "attaches", "file", "")
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, AttachesResponse{
		Success: 1,
		File: AttachedFile{
			URL:       s.uploadURL(up),
			Size:      up.Size,
			Name:      up.Name,
			Extension: up.Extension,
		},
	})
	return nil
}

// HandleImage serves both image tool uploaders: uploadFile (byFile) takes a
// multipart "image" field, fetchUrl (byUrl) downloads the given URL.
func (s *Server) HandleImage(w http.ResponseWriter, r *http.Request) error {
	var (
		up  *storage.Upload
		err error
	)
	switch r.PathValue("type") {
	case "uploadFile", "byFile":
		up, err = s.saveMultipart(w, r, "image", "image", "image/")
	case "fetchUrl", "byUrl":
		up, err = s.fetchImage(r)
	default:
		err = pluginError(fmt.Sprintf("Unknown image upload type %q", r.PathValue("type")), nil)
	}
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, ImageResponse{Success: 1, File: ImageFile{URL: s.uploadURL(up)}})
	return nil
}

func (s *Server) HandleLinkTool(w http.ResponseWriter, r *http.Request) error {
	raw := r.FormValue("url")
	if _, err := unfurl.ValidURL(raw); err != nil {
		return pluginError("", err)
	}
	if s.unfurler == nil {
		return pluginError("Link previews are disabled", nil)
	}

	meta, err := s.unfurler.Fetch(r.Context(), raw)
	if err != nil {
		return pluginError("Could not fetch link data", err)
	}

	m := LinkMeta{
		Title:       meta.Title,
		Description: meta.Description,
		Image:       LinkImage{URL: meta.Image},
	}
	s.writeJSON(w, http.StatusOK, LinkToolResponse{Success: 1, Link: m, Meta: m})
	return nil
}

// saveMultipart stores the multipart field. When typePrefix is set, files
// whose content type does not start with it are rejected before anything is
// written.
func (s *Server) saveMultipart(w http.ResponseWriter, r *http.Request, kind, field, typePrefix string) (*storage.Upload, error) {
	if s.files == nil {
		return nil, pluginError("Uploads are disabled", nil)
	}
	limit := s.maxUpload.Load()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile(field)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, pluginError("File is too large", err)
		}
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, pluginError("Invalid upload", err)
	}
	defer file.Close()

	contentType := fileContentType(header)
	if typePrefix != "" && !strings.HasPrefix(contentType, typePrefix) {
		return nil, pluginError("Uploaded file is not an image", fmt.Errorf("content type %q", contentType))
	}
	return s.save(r, kind, header.Filename, contentType, file, limit)
}

func (s *Server) save(r *http.Request, kind, name, contentType string, src io.Reader, limit int64) (*storage.Upload, error) {
	up, err := s.files.Save(r.Context(), kind, name, contentType, src, limit)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, pluginError("File is too large", err)
	}
	if err != nil {
		return nil, err
	}
	s.log.Infof("stored %s %q (%d bytes)", kind, up.Name, up.Size)
	return up, nil
}

func fileContentType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(h.Filename))); byExt != "" {
			return byExt
		}
	}
	return ct
}

// imageURL reads the url parameter from a JSON body or form values.
func imageURL(r *http.Request) string {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body); err == nil {
			return body.URL
		}
		return ""
	}
	return r.FormValue("url")
}

func (s *Server) fetchImage(r *http.Request) (*storage.Upload, error) {
	if s.files == nil {
		return nil, pluginError("Uploads are disabled", nil)
	}
	u, err := unfurl.ValidURL(imageURL(r))
	if err != nil {
		return nil, pluginError("", err)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, pluginError("", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pluginError("Could not download image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pluginError("Could not download image", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, pluginError("URL does not point to an image", nil)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "image"
	}
	if path.Ext(name) == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			name += exts[0]
		}
	}

	return s.save(r, "image", name, mediaType, resp.Body, s.maxUpload.Load())
}
