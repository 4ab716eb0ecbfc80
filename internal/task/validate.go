package task

import (
	"fmt"
	"time"
	"unicode/utf8"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"

	"github.com/kazz187/taskgantt/pkg/cerr"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// The store accepts any values; these checks run where user input enters
// (CLI flags and HTTP bodies).

func ValidateCreate(req CreateRequest) error {
	return check(req.Title, req.Description, req.StartDate, req.EndDate, req.Progress)
}

// ValidateUpdate validates the task as it would look after req is applied.
func ValidateUpdate(current *Task, req UpdateRequest) error {
	merged := current.Clone()
	merged.Apply(req, merged.UpdatedAt)
	return check(merged.Title, merged.Description, merged.StartDate, merged.EndDate, merged.Progress)
}

func check(title, description string, start, end time.Time, progress int) error {
	var vs []*validate.Violation
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		vs = append(vs, cerr.Violation("title.required", "title is required"))
	case n > MaxTitleLen:
		vs = append(vs, cerr.Violation("title.max_len", fmt.Sprintf("title must be at most %d characters", MaxTitleLen)))
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		vs = append(vs, cerr.Violation("description.max_len", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen)))
	}
	if start.IsZero() {
		vs = append(vs, cerr.Violation("start_date.required", "start date is required"))
	}
	if end.IsZero() {
		vs = append(vs, cerr.Violation("end_date.required", "end date is required"))
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		vs = append(vs, cerr.Violation("end_date.after_start", "end date must be after start date"))
	}
	if progress < 0 || progress > 100 {
		vs = append(vs, cerr.Violation("progress.range", "progress must be between 0 and 100"))
	}
	if len(vs) == 0 {
		return nil
	}
	return cerr.NewValidationError("invalid task", vs)
}
