package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
	"github.com/Dj0083/final-project-sub000/pkg/storage"
)

// File is an uploaded binary awaiting storage.
type File struct {
	Name string
	Body io.Reader
}

// UploadInput describes one document upload onto a thread.
type UploadInput struct {
	Thread       models.ThreadRef
	UploaderID   uint64
	UploaderRole enums.Role
	DocType      string
	File         File
}

// Gate enforces upload roles and single-instance document types.
type Gate interface {
	WithTx(tx *gorm.DB) Gate
	Upload(ctx context.Context, in UploadInput) (*models.Document, error)
	List(ctx context.Context, thread models.ThreadRef, viewer enums.Role) ([]models.Document, error)
	Find(ctx context.Context, thread models.ThreadRef, docType enums.DocType) (*models.Document, error)
	// Discard removes the stored object behind doc after its row was rolled back.
	Discard(ctx context.Context, doc *models.Document)
}

type gate struct {
	repo    *Repository
	store   storage.ObjectStore
	metrics *metrics.WorkflowMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewGate builds the document gate over the repository and object store.
func NewGate(repo *Repository, store storage.ObjectStore, m *metrics.WorkflowMetrics, logg *logger.Logger) (Gate, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	return &gate{repo: repo, store: store, metrics: m, logg: logg, now: time.Now}, nil
}

func (g *gate) WithTx(tx *gorm.DB) Gate {
	clone := *g
	clone.repo = g.repo.WithTx(tx)
	return &clone
}

func (g *gate) Upload(ctx context.Context, in UploadInput) (*models.Document, error) {
	docType, err := Authorize(in.Thread.Type, in.DocType, in.UploaderRole)
	if err != nil {
		return nil, err
	}

	if docType.IsSingleton() {
		existing, err := g.repo.FindByType(ctx, in.Thread, docType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing document")
		}
		if existing != nil {
			return nil, conflict(existing)
		}
	}

	if in.File.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	mimeType, body, err := storage.Sniff(in.File.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported file type %s", mimeType)).
			WithDetails(map[string]any{"mime_type": mimeType})
	}

	key := fmt.Sprintf("threads/%s/%d/%s/%s%s", in.Thread.Type, in.Thread.ID, docType, uuid.NewString(), storage.Extension(mimeType))
	obj, err := g.store.Put(ctx, key, mimeType, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store document")
	}

	doc := &models.Document{
		ThreadType: in.Thread.Type,
		ThreadID:   in.Thread.ID,
		UploaderID: in.UploaderID,
		DocType:    docType,
		FilePath:   obj.Path,
		MimeType:   obj.MimeType,
		StorageKey: obj.Key,
		CreatedAt:  g.now().UTC(),
	}
	if docType.IsSingleton() {
		key := docType.String()
		doc.SingletonKey = &key
	}

	if err := g.repo.Create(ctx, doc); err != nil {
		g.discard(ctx, obj.Key)
		if docType.IsSingleton() && db.IsUniqueViolation(err, "") {
			existing, findErr := g.repo.FindByType(ctx, in.Thread, docType)
			if findErr == nil && existing != nil {
				return nil, conflict(existing)
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s already uploaded", docType))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert document")
	}

	g.metrics.IncDocument(in.Thread.Type.String(), docType.String())
	return doc, nil
}

// Authorize normalizes rawDocType and checks that role may upload it on the thread type.
func Authorize(threadType enums.ThreadType, rawDocType string, role enums.Role) (enums.DocType, error) {
	docType, err := enums.ParseDocType(rawDocType)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if !AcceptsDocType(threadType, docType) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s documents are not accepted on %s threads", docType, threadType))
	}
	if !CanUpload(threadType, docType, role) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("only the %s may upload %s documents", uploaderLabel(threadType, docType), docType))
	}
	return docType, nil
}

func (g *gate) List(ctx context.Context, thread models.ThreadRef, viewer enums.Role) ([]models.Document, error) {
	rows, err := g.repo.List(ctx, thread, VisibleDocTypes(thread.Type, viewer))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list documents")
	}
	return rows, nil
}

func (g *gate) Find(ctx context.Context, thread models.ThreadRef, docType enums.DocType) (*models.Document, error) {
	doc, err := g.repo.FindByType(ctx, thread, docType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find document")
	}
	return doc, nil
}

func (g *gate) Discard(ctx context.Context, doc *models.Document) {
	if doc == nil || doc.StorageKey == "" {
		return
	}
	g.discard(ctx, doc.StorageKey)
}

func (g *gate) discard(ctx context.Context, key string) {
	if err := g.store.Delete(ctx, key); err != nil && g.logg != nil {
		g.logg.Warn(g.logg.WithField(ctx, "object_key", key), "orphaned document object could not be removed")
	}
}

func conflict(existing *models.Document) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s already uploaded", existing.DocType)).
		WithDetails(map[string]any{
			"existing_document_id": existing.ID,
			"file_path":            existing.FilePath,
		})
}

func uploaderLabel(threadType enums.ThreadType, docType enums.DocType) string {
	roles := uploaders[threadType][docType]
	labels := make([]string, 0, len(roles))
	for _, role := range roles {
		labels = append(labels, role.String())
	}
	return strings.Join(labels, " or ")
}
