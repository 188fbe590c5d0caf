package model

import (
	"errors"
	"fmt"
)

// Error represents a domain error. Key identifies the localized message.
type Error struct {
	Key     string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

var (
	ErrUnauthenticated = Error{Key: "unauthenticated", Message: "you must be signed in"}
	ErrForbidden       = Error{Key: "forbidden", Message: "operation not allowed for this user"}

	ErrProjectNotFound  = Error{Key: "projectNotFound", Message: "project not found"}
	ErrTaskNotFound     = Error{Key: "taskNotFound", Message: "task not found"}
	ErrParentNotFound   = Error{Key: "parentNotFound", Message: "parent task not found"}
	ErrCommentNotFound  = Error{Key: "commentNotFound", Message: "comment not found"}
	ErrProviderNotFound = Error{Key: "providerNotFound", Message: "provider not found"}

	ErrTitleRequired         = Error{Key: "titleRequired", Message: "title is required"}
	ErrNameRequired          = Error{Key: "nameRequired", Message: "name is required"}
	ErrContentRequired       = Error{Key: "contentRequired", Message: "content is required"}
	ErrFileRequired          = Error{Key: "fileRequired", Message: "file is required"}
	ErrInvalidStatus         = Error{Key: "invalidStatus", Message: "invalid status (valid: todo, in_progress, review, done)"}
	ErrInvalidPriority       = Error{Key: "invalidPriority", Message: "invalid priority (valid: low, medium, high, urgent)"}
	ErrParentProjectMismatch = Error{Key: "parentProjectMismatch", Message: "parent task belongs to another project"}
	ErrDepthMismatch         = Error{Key: "depthMismatch", Message: "depth level does not match parent"}
	ErrDepthLimitExceeded    = Error{Key: "depthLimitExceeded", Message: "task hierarchy depth limit exceeded"}

	ErrProvisioningFailed = Error{Key: "provisioningFailed", Message: "could not prepare provider folders"}
	ErrUploadFailed       = Error{Key: "uploadFailed", Message: "could not upload file"}
)

// DepthLimitError indicates a child was requested under a task that already
// sits at MaxDepthLevel.
type DepthLimitError struct {
	ParentID    string
	ParentDepth int
}

func (e DepthLimitError) Error() string {
	return fmt.Sprintf("task %s is at depth %d and cannot have subtasks (max depth %d)",
		e.ParentID, e.ParentDepth, MaxDepthLevel)
}

// Is makes DepthLimitError match ErrDepthLimitExceeded.
func (e DepthLimitError) Is(target error) bool {
	return target == ErrDepthLimitExceeded
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrProjectNotFound,
		ErrTaskNotFound,
		ErrParentNotFound,
		ErrCommentNotFound,
		ErrProviderNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
