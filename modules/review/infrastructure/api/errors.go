package api

import (
	"errors"
	"fmt"

	"github.com/iota-uz/taskdesk/pkg/serrors"
)

// Error is the normalized failure of one backend call.
type Error struct {
	Operation        string
	Status           int
	ServerMessage    string
	TransportMessage string
	Fallback         string
	Err              error
}

// Message picks the server message, then the transport message, then the
// operation fallback.
func (e *Error) Message() string {
	switch {
	case e.ServerMessage != "":
		return e.ServerMessage
	case e.TransportMessage != "":
		return e.TransportMessage
	case e.Fallback != "":
		return e.Fallback
	default:
		return fmt.Sprintf("%s failed", e.Operation)
	}
}

func (e *Error) Error() string {
	return e.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message reduces any error returned by the client to the text shown to the user.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	var be *serrors.BaseError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if s := err.Error(); s != "" {
		return s
	}
	return fallback
}

func statusMessage(status int) string {
	return fmt.Sprintf("request failed with status code %d", status)
}

var fallbacks = map[string]string{
	OpListPositions:      "Failed to fetch positions",
	OpListSupervisors:    "Failed to fetch supervisors",
	OpPositionHierarchy:  "Failed to fetch position hierarchy",
	OpCreatePosition:     "Failed to create position",
	OpUpdatePosition:     "Failed to update position",
	OpDeletePosition:     "Failed to delete position",
	OpGetPosition:        "Failed to fetch position",
	OpTeamTasks:          "Failed to fetch team tasks",
	OpHierarchicalTasks:  "Failed to fetch hierarchical tasks",
	OpTeamMembers:        "Failed to fetch team members",
	OpSubmitReview:       "Failed to submit review",
	OpUserTaskReport:     "Failed to fetch user task report",
	OpTeamsDailyTasks:    "Failed to fetch team daily tasks",
	OpAdminDailyTasks:    "Failed to fetch daily tasks",
	OpFurtherReviewQueue: "Failed to fetch further review tasks",
}

// Fallback returns the fixed message used when a failure carries no text.
func Fallback(op string) string {
	return fallbacks[op]
}
