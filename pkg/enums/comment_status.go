package enums

import "fmt"

// CommentStatus tracks moderation of service comments.
type CommentStatus string

const (
	CommentStatusWaiting     CommentStatus = "w"
	CommentStatusApproved    CommentStatus = "a"
	CommentStatusNotApproved CommentStatus = "na"
)

var validCommentStatuses = []CommentStatus{
	CommentStatusWaiting,
	CommentStatusApproved,
	CommentStatusNotApproved,
}

func (c CommentStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommentStatus.
func (c CommentStatus) IsValid() bool {
	for _, candidate := range validCommentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommentStatus converts raw input into a CommentStatus.
func ParseCommentStatus(value string) (CommentStatus, error) {
	for _, candidate := range validCommentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid comment status %q", value)
}
