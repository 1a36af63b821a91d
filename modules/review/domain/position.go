package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/taskdesk/pkg/serrors"
)

var ErrSelfSupervision = serrors.NewError("POSITION_SELF_SUPERVISION", "a position cannot supervise itself", "Positions.Errors.SelfSupervision")

// PositionRef points at another position, either by bare id or by {id, title}.
type PositionRef struct {
	ID    ID     `json:"id"`
	Title string `json:"title,omitempty"`
}

type positionRefObject PositionRef

func (r *PositionRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*r = PositionRef{}
		return nil
	}
	if b[0] != '{' {
		var id ID
		if err := id.UnmarshalJSON(b); err != nil {
			return err
		}
		*r = PositionRef{ID: id}
		return nil
	}
	var obj positionRefObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = PositionRef(obj)
	return nil
}

// Position is a node of the org chart. Subordinates are computed by the backend
// as the inverse of other positions' DirectSupervisor and are never edited here.
type Position struct {
	ID               ID            `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	IsActive         bool          `json:"isActive"`
	CreatedAt        *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time    `json:"updatedAt,omitempty"`
	Company          *Ref          `json:"company,omitempty"`
	Department       *Ref          `json:"department,omitempty"`
	SupervisoryLevel *Level        `json:"supervisoryLevel,omitempty"`
	DirectSupervisor *PositionRef  `json:"directSupervisor,omitempty"`
	Subordinates     []PositionRef `json:"subordinates,omitempty"`
}

func (p Position) Validate() error {
	if p.DirectSupervisor != nil && !p.ID.IsZero() && p.DirectSupervisor.ID == p.ID {
		return ErrSelfSupervision
	}
	return nil
}

// PositionNode is one node of the org chart returned by the hierarchy endpoint.
type PositionNode struct {
	Position
	Children []PositionNode `json:"children,omitempty"`
}

// Walk visits n and its descendants depth first.
func (n PositionNode) Walk(fn func(node PositionNode, depth int)) {
	n.walk(fn, 0)
}

func (n PositionNode) walk(fn func(PositionNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// PositionInput is the create/update payload.
type PositionInput struct {
	Title              string `json:"title" validate:"required,max=200"`
	Description        string `json:"description,omitempty" validate:"max=2000"`
	IsActive           *bool  `json:"isActive,omitempty"`
	CompanyID          ID     `json:"companyId,omitempty"`
	DepartmentID       ID     `json:"departmentId,omitempty"`
	SupervisoryLevelID ID     `json:"supervisoryLevelId,omitempty"`
	DirectSupervisorID ID     `json:"directSupervisorId,omitempty"`
}

func (in *PositionInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CompanyID = ID(strings.TrimSpace(string(in.CompanyID)))
	in.DepartmentID = ID(strings.TrimSpace(string(in.DepartmentID)))
	in.SupervisoryLevelID = ID(strings.TrimSpace(string(in.SupervisoryLevelID)))
	in.DirectSupervisorID = ID(strings.TrimSpace(string(in.DirectSupervisorID)))
}

// Validate checks the input for the position identified by self (empty on create).
func (in *PositionInput) Validate(self ID) error {
	in.Normalize()
	if err := Validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return serrors.ProcessValidatorErrors(verrs, positionFieldName).AsError()
		}
		return err
	}
	if !self.IsZero() && in.DirectSupervisorID == self {
		return ErrSelfSupervision
	}
	return nil
}

func positionFieldName(field string) string {
	switch field {
	case "Title":
		return "Title"
	case "Description":
		return "Description"
	default:
		return ""
	}
}

// InputFromPosition builds the editable form of p.
func InputFromPosition(p Position) PositionInput {
	active := p.IsActive
	in := PositionInput{
		Title:       p.Title,
		Description: p.Description,
		IsActive:    &active,
	}
	if p.Company != nil {
		in.CompanyID = p.Company.ID
	}
	if p.Department != nil {
		in.DepartmentID = p.Department.ID
	}
	if p.SupervisoryLevel != nil {
		in.SupervisoryLevelID = p.SupervisoryLevel.ID
	}
	if p.DirectSupervisor != nil {
		in.DirectSupervisorID = p.DirectSupervisor.ID
	}
	return in
}

// IndexOfPosition returns the index of the position with id, or -1.
func IndexOfPosition(items []Position, id ID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
