package api

import (
	"context"
	"net/http"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

// ReviewRequest is the body of a review submission.
type ReviewRequest struct {
	Status                    domain.ReviewKind `json:"status"`
	Comment                   string            `json:"comment,omitempty"`
	FurtherReviewSupervisorID domain.ID         `json:"furtherReviewSupervisorId,omitempty"`
	ReviewComment             string            `json:"reviewComment,omitempty"`
}

// SubmitReview posts a decision. The returned task is nil when the backend
// does not echo it.
func (c *Client) SubmitReview(ctx context.Context, sess domain.Session, taskID domain.ID, req ReviewRequest) (*domain.Task, error) {
	if err := requireToken(sess); err != nil {
		return nil, err
	}
	if err := requireID("task id", taskID); err != nil {
		return nil, err
	}
	var out *domain.Task
	_, err := c.do(ctx, sess, call{
		op:     OpSubmitReview,
		method: http.MethodPost,
		path:   "/task/tasks/" + seg(taskID) + "/review",
		body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
