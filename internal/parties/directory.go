package parties

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

type partiesRepository interface {
	FindByID(ctx context.Context, id uint64) (*models.Party, error)
}

// Directory resolves party ids against their expected role.
type Directory interface {
	Lookup(ctx context.Context, id uint64, role enums.Role) (*models.Party, error)
}

type directory struct {
	repo partiesRepository
}

// NewDirectory builds a Directory over the users table.
func NewDirectory(repo partiesRepository) (Directory, error) {
	if repo == nil {
		return nil, fmt.Errorf("parties repository required")
	}
	return &directory{repo: repo}, nil
}

// Lookup returns the party only when it exists with the requested role.
func (d *directory) Lookup(ctx context.Context, id uint64, role enums.Role) (*models.Party, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, role.String()+" id is required")
	}
	party, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, role.String()+" not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load party")
	}
	if party.Role != role {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, role.String()+" not found")
	}
	return party, nil
}
