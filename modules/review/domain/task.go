package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the work-execution state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskDelayed    TaskStatus = "delayed"
)

// ReviewKind is the oversight state of a task, independent from TaskStatus.
type ReviewKind string

const (
	ReviewPending       ReviewKind = "pending"
	ReviewApproved      ReviewKind = "approved"
	ReviewRejected      ReviewKind = "rejected"
	ReviewFurtherReview ReviewKind = "further_review"
)

func ParseReviewKind(s string) (ReviewKind, error) {
	switch k := ReviewKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewFurtherReview:
		return k, nil
	case "":
		return ReviewPending, nil
	default:
		return "", fmt.Errorf("unknown review status %q", s)
	}
}

// Forwarding is set only on tasks forwarded for further review.
type Forwarding struct {
	TargetSupervisorID ID
	Comment            string
}

// ReviewState is the review variant of a task:
// Pending, Approved, Rejected or FurtherReview with its forwarding target.
type ReviewState struct {
	Kind       ReviewKind
	ReviewedBy ID
	ReviewedAt *time.Time
	Forwarding *Forwarding
}

func PendingReview() ReviewState {
	return ReviewState{Kind: ReviewPending}
}

func ApprovedBy(reviewer ID, at time.Time) ReviewState {
	return ReviewState{Kind: ReviewApproved, ReviewedBy: reviewer, ReviewedAt: &at}
}

func RejectedBy(reviewer ID, at time.Time) ReviewState {
	return ReviewState{Kind: ReviewRejected, ReviewedBy: reviewer, ReviewedAt: &at}
}

func ForwardedBy(reviewer ID, at time.Time, target ID, comment string) ReviewState {
	return ReviewState{
		Kind:       ReviewFurtherReview,
		ReviewedBy: reviewer,
		ReviewedAt: &at,
		Forwarding: &Forwarding{TargetSupervisorID: target, Comment: comment},
	}
}

// Reviewed reports a terminal decision. A task forwarded for further review is not reviewed.
func (r ReviewState) Reviewed() bool {
	return r.Kind == ReviewApproved || r.Kind == ReviewRejected
}

// Actionable reports whether a supervisor may still submit a decision.
func (r ReviewState) Actionable() bool {
	return !r.Reviewed()
}

// Comment is append-only; it is never edited or deleted client-side.
type Comment struct {
	Text       string    `json:"text"`
	AuthorID   ID        `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Task struct {
	ID           ID
	Title        string
	Description  string
	Contribution string
	Deliverables string
	Status       TaskStatus
	Review       ReviewState
	Comments     []Comment
	Company      *Ref
	Department   *Ref
	Project      string
	UserID       ID
	Date         string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

type taskWire struct {
	ID                        ID         `json:"id"`
	Title                     string     `json:"title"`
	Description               string     `json:"description,omitempty"`
	Contribution              string     `json:"contribution,omitempty"`
	Deliverables              string     `json:"deliverables,omitempty"`
	Status                    TaskStatus `json:"status,omitempty"`
	ReviewStatus              string     `json:"review_status"`
	Reviewed                  bool       `json:"reviewed"`
	ReviewedBy                ID         `json:"reviewed_by,omitempty"`
	ReviewedAt                *time.Time `json:"reviewed_at,omitempty"`
	FurtherReviewSupervisorID ID         `json:"further_review_supervisor_id,omitempty"`
	FurtherReviewComment      string     `json:"further_review_comment,omitempty"`
	Comments                  []Comment  `json:"comments,omitempty"`
	Company                   *Ref       `json:"company,omitempty"`
	Department                *Ref       `json:"department,omitempty"`
	Project                   string     `json:"project,omitempty"`
	UserID                    ID         `json:"user_id,omitempty"`
	Date                      string     `json:"date,omitempty"`
	CreatedAt                 *time.Time `json:"created_at,omitempty"`
	UpdatedAt                 *time.Time `json:"updated_at,omitempty"`
}

// UnmarshalJSON derives the review variant from review_status; the wire
// "reviewed" flag is ignored because the backend sets it inconsistently.
func (t *Task) UnmarshalJSON(b []byte) error {
	var w taskWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	kind, err := ParseReviewKind(w.ReviewStatus)
	if err != nil {
		return err
	}
	review := ReviewState{Kind: kind}
	if kind != ReviewPending {
		review.ReviewedBy = w.ReviewedBy
		review.ReviewedAt = w.ReviewedAt
	}
	if kind == ReviewFurtherReview {
		review.Forwarding = &Forwarding{
			TargetSupervisorID: w.FurtherReviewSupervisorID,
			Comment:            w.FurtherReviewComment,
		}
	}
	*t = Task{
		ID:           w.ID,
		Title:        w.Title,
		Description:  w.Description,
		Contribution: w.Contribution,
		Deliverables: w.Deliverables,
		Status:       w.Status,
		Review:       review,
		Comments:     w.Comments,
		Company:      w.Company,
		Department:   w.Department,
		Project:      w.Project,
		UserID:       w.UserID,
		Date:         w.Date,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	kind := t.Review.Kind
	if kind == "" {
		kind = ReviewPending
	}
	w := taskWire{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Contribution: t.Contribution,
		Deliverables: t.Deliverables,
		Status:       t.Status,
		ReviewStatus: string(kind),
		Reviewed:     t.Review.Reviewed(),
		ReviewedBy:   t.Review.ReviewedBy,
		ReviewedAt:   t.Review.ReviewedAt,
		Comments:     t.Comments,
		Company:      t.Company,
		Department:   t.Department,
		Project:      t.Project,
		UserID:       t.UserID,
		Date:         t.Date,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if f := t.Review.Forwarding; f != nil {
		w.FurtherReviewSupervisorID = f.TargetSupervisorID
		w.FurtherReviewComment = f.Comment
	}
	return json.Marshal(w)
}

// WithReview returns a copy of t carrying review and, when comment is non-nil,
// the comment appended to a fresh comments slice.
func (t Task) WithReview(review ReviewState, comment *Comment) Task {
	out := t
	out.Review = review
	if comment != nil {
		comments := make([]Comment, 0, len(t.Comments)+1)
		comments = append(comments, t.Comments...)
		out.Comments = append(comments, *comment)
	}
	return out
}

// Day returns the task date, falling back to the creation day.
func (t Task) Day() string {
	if len(t.Date) >= len(time.DateOnly) {
		return t.Date[:len(time.DateOnly)]
	}
	if t.Date != "" {
		return t.Date
	}
	if t.CreatedAt != nil {
		return t.CreatedAt.UTC().Format(time.DateOnly)
	}
	return ""
}
