package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

const (
	FileField    = "file"
	DocTypeField = "doc_type"
)

// Upload is a single multipart document part plus its declared doc type.
type Upload struct {
	DocType  string
	Filename string
	Body     io.Reader

	closer io.Closer
}

// Close releases the multipart part.
func (u *Upload) Close() error {
	if u == nil || u.closer == nil {
		return nil
	}
	return u.closer.Close()
}

// ParseUpload reads a multipart/form-data request carrying doc_type and file,
// capping the whole body at maxBytes.
func ParseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Upload, error) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "multipart/form-data body required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload exceeds size limit").
				WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	docType := strings.TrimSpace(r.FormValue(DocTypeField))
	if docType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{DocTypeField: "is required"})
	}

	file, header, err := r.FormFile(FileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{FileField: "is required"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file part")
	}
	return &Upload{DocType: docType, Filename: filename(header), Body: file, closer: file}, nil
}

func filename(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}
