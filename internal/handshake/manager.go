package handshake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
)

const maxNoteLen = 1000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the request/respond protocol plus the thread's message and document sub-resources.
type Service[T Thread] interface {
	Request(ctx context.Context, actor parties.Actor, targetID uint64, note *string) (T, bool, error)
	Respond(ctx context.Context, actor parties.Actor, threadID uint64, decision enums.Decision) (T, error)
	ListFor(ctx context.Context, actor parties.Actor, status *enums.HandshakeStatus) ([]T, error)
	IsParticipant(ctx context.Context, threadID, partyID uint64) (bool, error)
	Get(ctx context.Context, actor parties.Actor, threadID uint64) (T, error)
	PostMessage(ctx context.Context, actor parties.Actor, threadID uint64, body string) (*models.Message, error)
	ListMessages(ctx context.Context, actor parties.Actor, threadID uint64, in threadlog.ListInput) ([]models.Message, error)
	UploadDocument(ctx context.Context, actor parties.Actor, threadID uint64, docType string, file documents.File) (*models.Document, error)
	ListDocuments(ctx context.Context, actor parties.Actor, threadID uint64) ([]models.Document, error)
}

// Deps carries the collaborators shared by every handshake kind.
type Deps struct {
	DB        *gorm.DB
	Tx        txRunner
	Directory parties.Directory
	Log       threadlog.Log
	Gate      documents.Gate
	Metrics   *metrics.WorkflowMetrics
	Logger    *logger.Logger
}

// Manager implements Service for one Kind.
type Manager[T Thread] struct {
	kind      Kind[T]
	repo      *Repository[T]
	tx        txRunner
	directory parties.Directory
	log       threadlog.Log
	gate      documents.Gate
	metrics   *metrics.WorkflowMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewManager wires a handshake kind onto the shared collaborators.
func NewManager[T Thread](kind Kind[T], deps Deps) (*Manager[T], error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("party directory required")
	}
	if deps.Log == nil {
		return nil, fmt.Errorf("thread log required")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("document gate required")
	}
	if kind.New == nil || kind.InitiatorColumn == "" || kind.ResponderColumn == "" {
		return nil, fmt.Errorf("handshake kind %s is incomplete", kind.ThreadType)
	}
	return &Manager[T]{
		kind:      kind,
		repo:      NewRepository(deps.DB, kind),
		tx:        deps.Tx,
		directory: deps.Directory,
		log:       deps.Log,
		gate:      deps.Gate,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		now:       time.Now,
	}, nil
}

// NewConnections builds the seller to investor manager.
func NewConnections(deps Deps) (*Manager[models.Connection], error) {
	return NewManager(ConnectionKind(), deps)
}

// NewPartnerRequests builds the seller to affiliate manager.
func NewPartnerRequests(deps Deps) (*Manager[models.PartnerRequest], error) {
	return NewManager(PartnerKind(), deps)
}

// Request opens a pending thread, or returns the existing thread for the pair unchanged.
// The boolean reports whether a new row was created.
func (m *Manager[T]) Request(ctx context.Context, actor parties.Actor, targetID uint64, note *string) (T, bool, error) {
	var zero T
	if err := actor.Require(m.kind.InitiatorRole); err != nil {
		return zero, false, err
	}
	if m.kind.Precondition != nil {
		if err := m.kind.Precondition(ctx, m.repo.db, actor.ID); err != nil {
			return zero, false, err
		}
	}
	if _, err := m.directory.Lookup(ctx, targetID, m.kind.ResponderRole); err != nil {
		return zero, false, err
	}
	note, err := normalizeNote(note)
	if err != nil {
		return zero, false, err
	}

	row := m.kind.New(actor.ID, targetID, note, m.now().UTC())
	created, err := m.repo.InsertIfAbsent(ctx, &row)
	if err != nil {
		return zero, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert "+m.kind.ThreadType.String())
	}
	existing, err := m.repo.FindPair(ctx, actor.ID, targetID)
	if err != nil {
		return zero, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+m.kind.ThreadType.String())
	}
	if created {
		m.metrics.IncTransition(m.kind.ThreadType.String(), enums.HandshakeStatusPending.String())
	}
	return *existing, created, nil
}

// Respond resolves a pending thread. Only the named responder may answer, exactly once.
func (m *Manager[T]) Respond(ctx context.Context, actor parties.Actor, threadID uint64, decision enums.Decision) (T, error) {
	var zero T
	if err := actor.Require(m.kind.ResponderRole); err != nil {
		return zero, err
	}
	if !decision.IsValid() {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept or reject")
	}
	status := decision.Status()
	ref := models.ThreadRef{Type: m.kind.ThreadType, ID: threadID}

	var out T
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)
		current, err := repo.FindForResponder(ctx, threadID, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, strings.ToLower(m.kind.Label)+" not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+m.kind.ThreadType.String())
		}
		if (*current).ThreadStatus() != enums.HandshakeStatusPending {
			return alreadyResolved((*current).ThreadStatus())
		}

		affected, err := repo.Resolve(ctx, threadID, actor.ID, status, m.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve "+m.kind.ThreadType.String())
		}
		if affected == 0 {
			return alreadyResolved("")
		}

		body := fmt.Sprintf("%s %s.", m.kind.Label, status)
		if _, err := m.log.WithTx(tx).AppendSystem(ctx, ref, actor.ID, body); err != nil {
			return err
		}

		updated, err := repo.FindByID(ctx, threadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload "+m.kind.ThreadType.String())
		}
		out = *updated
		return nil
	})
	if err != nil {
		return zero, err
	}

	m.metrics.IncTransition(m.kind.ThreadType.String(), status.String())
	if m.logg != nil {
		logCtx := m.logg.WithThread(ctx, m.kind.ThreadType.String(), threadID)
		m.logg.Info(m.logg.WithField(logCtx, "status", status), "handshake.responded")
	}
	return out, nil
}

// ListFor returns every thread the actor is party to, newest first. Admins see all threads.
func (m *Manager[T]) ListFor(ctx context.Context, actor parties.Actor, status *enums.HandshakeStatus) ([]T, error) {
	var column string
	switch {
	case actor.Role == m.kind.InitiatorRole:
		column = m.kind.InitiatorColumn
	case actor.Role == m.kind.ResponderRole:
		column = m.kind.ResponderColumn
	case actor.IsAdmin():
		column = ""
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role "+actor.Role.String()+" has no "+m.kind.ThreadType.String()+" threads")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, err := m.repo.List(ctx, column, actor.ID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list "+m.kind.ThreadType.String())
	}
	return rows, nil
}

// IsParticipant reports whether partyID is either side of the thread.
func (m *Manager[T]) IsParticipant(ctx context.Context, threadID, partyID uint64) (bool, error) {
	ok, err := m.repo.IsParticipant(ctx, threadID, partyID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check participant")
	}
	return ok, nil
}

// Get returns the thread for a participant or the admin.
func (m *Manager[T]) Get(ctx context.Context, actor parties.Actor, threadID uint64) (T, error) {
	row, err := m.load(ctx, threadID)
	if err != nil {
		return row, err
	}
	if actor.IsAdmin() || isParty(row, actor.ID) {
		return row, nil
	}
	var zero T
	return zero, notParticipant()
}

func (m *Manager[T]) PostMessage(ctx context.Context, actor parties.Actor, threadID uint64, body string) (*models.Message, error) {
	if _, err := m.writable(ctx, actor, threadID); err != nil {
		return nil, err
	}
	return m.log.Append(ctx, threadlog.AppendInput{
		Thread:     models.ThreadRef{Type: m.kind.ThreadType, ID: threadID},
		SenderID:   actor.ID,
		SenderType: enums.SenderTypeForRole(actor.Role),
		Body:       body,
	})
}

func (m *Manager[T]) ListMessages(ctx context.Context, actor parties.Actor, threadID uint64, in threadlog.ListInput) ([]models.Message, error) {
	if _, err := m.Get(ctx, actor, threadID); err != nil {
		return nil, err
	}
	return m.log.List(ctx, models.ThreadRef{Type: m.kind.ThreadType, ID: threadID}, in)
}

func (m *Manager[T]) UploadDocument(ctx context.Context, actor parties.Actor, threadID uint64, docType string, file documents.File) (*models.Document, error) {
	if _, err := m.writable(ctx, actor, threadID); err != nil {
		return nil, err
	}
	return m.gate.Upload(ctx, documents.UploadInput{
		Thread:       models.ThreadRef{Type: m.kind.ThreadType, ID: threadID},
		UploaderID:   actor.ID,
		UploaderRole: actor.Role,
		DocType:      docType,
		File:         file,
	})
}

func (m *Manager[T]) ListDocuments(ctx context.Context, actor parties.Actor, threadID uint64) ([]models.Document, error) {
	if _, err := m.Get(ctx, actor, threadID); err != nil {
		return nil, err
	}
	return m.gate.List(ctx, models.ThreadRef{Type: m.kind.ThreadType, ID: threadID}, actor.Role)
}

// writable loads the thread for one of its two parties while it is still open.
func (m *Manager[T]) writable(ctx context.Context, actor parties.Actor, threadID uint64) (T, error) {
	row, err := m.load(ctx, threadID)
	if err != nil {
		return row, err
	}
	var zero T
	if !isParty(row, actor.ID) {
		return zero, notParticipant()
	}
	if row.ThreadStatus() == enums.HandshakeStatusRejected {
		return zero, pkgerrors.New(pkgerrors.CodePreconditionFailed, strings.ToLower(m.kind.Label)+" was rejected")
	}
	return row, nil
}

func (m *Manager[T]) load(ctx context.Context, threadID uint64) (T, error) {
	var zero T
	row, err := m.repo.FindByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, pkgerrors.New(pkgerrors.CodeNotFound, strings.ToLower(m.kind.Label)+" not found")
		}
		return zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+m.kind.ThreadType.String())
	}
	return *row, nil
}

func isParty(t Thread, partyID uint64) bool {
	return partyID != 0 && (t.Initiator() == partyID || t.Responder() == partyID)
}

func notParticipant() error {
	return pkgerrors.New(pkgerrors.CodeNotParticipant, "caller is not a participant of this thread")
}

func alreadyResolved(status enums.HandshakeStatus) error {
	err := pkgerrors.New(pkgerrors.CodePreconditionFailed, "request has already been resolved")
	if status != "" {
		err.WithDetails(map[string]any{"status": status})
	}
	return err
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxNoteLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("note exceeds %d characters", maxNoteLen))
	}
	return &trimmed, nil
}
