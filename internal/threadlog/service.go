package threadlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

const (
	// MaxListLimit caps how many messages a single read may return.
	MaxListLimit = 50
	maxBodyLen   = 4000
)

// Order selects the read direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder defaults to ascending.
func ParseOrder(value string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(OrderAsc):
		return OrderAsc, nil
	case string(OrderDesc):
		return OrderDesc, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc")
	}
}

// AppendInput is a user-authored entry. Participancy is checked by the thread owner.
type AppendInput struct {
	Thread     models.ThreadRef
	SenderID   uint64
	SenderType enums.SenderType
	Body       string
}

// ListInput selects the read window.
type ListInput struct {
	Order Order
	Limit int
}

// Log is the append-only message store shared by every workflow.
type Log interface {
	WithTx(tx *gorm.DB) Log
	Append(ctx context.Context, in AppendInput) (*models.Message, error)
	AppendSystem(ctx context.Context, thread models.ThreadRef, actingID uint64, body string) (*models.Message, error)
	List(ctx context.Context, thread models.ThreadRef, in ListInput) ([]models.Message, error)
}

type threadLog struct {
	repo *Repository
	now  func() time.Time
}

// NewLog builds a Log over the messages repository.
func NewLog(repo *Repository) (Log, error) {
	if repo == nil {
		return nil, fmt.Errorf("messages repository required")
	}
	return &threadLog{repo: repo, now: time.Now}, nil
}

func (l *threadLog) WithTx(tx *gorm.DB) Log {
	return &threadLog{repo: l.repo.WithTx(tx), now: l.now}
}

func (l *threadLog) Append(ctx context.Context, in AppendInput) (*models.Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if len(body) > maxBodyLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("message body exceeds %d characters", maxBodyLen))
	}
	if !in.Thread.Type.IsValid() || in.Thread.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "thread reference is required")
	}
	if in.SenderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender is required")
	}
	return l.insert(ctx, in.Thread, in.SenderID, in.SenderType, body, false)
}

// AppendSystem records a state transition as a visible chat entry authored by the platform.
func (l *threadLog) AppendSystem(ctx context.Context, thread models.ThreadRef, actingID uint64, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "system message body is required")
	}
	return l.insert(ctx, thread, actingID, enums.SenderTypeSystem, body, true)
}

func (l *threadLog) insert(ctx context.Context, thread models.ThreadRef, senderID uint64, senderType enums.SenderType, body string, system bool) (*models.Message, error) {
	msg := &models.Message{
		ThreadType: thread.Type,
		ThreadID:   thread.ID,
		SenderID:   senderID,
		SenderType: senderType,
		Body:       body,
		IsSystem:   system,
		CreatedAt:  l.now().UTC(),
	}
	if err := l.repo.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append message")
	}
	return msg, nil
}

func (l *threadLog) List(ctx context.Context, thread models.ThreadRef, in ListInput) ([]models.Message, error) {
	limit := in.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := l.repo.List(ctx, listQuery{
		thread:     thread,
		descending: in.Order == OrderDesc,
		limit:      limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	return rows, nil
}
