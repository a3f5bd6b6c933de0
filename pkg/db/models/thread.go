package models

import "github.com/Dj0083/final-project-sub000/pkg/enums"

// ThreadRef addresses the workflow entity owning a document or message.
type ThreadRef struct {
	Type enums.ThreadType
	ID   uint64
}
