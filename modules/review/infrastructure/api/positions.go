package api

import (
	"context"
	"encoding/json"
	"net/http"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/pkg/serrors"
)

var ErrNoChanges = serrors.NewError("POSITION_NO_CHANGES", "no changes to save", "Positions.Errors.NoChanges")

func (c *Client) ListPositions(ctx context.Context, sess domain.Session) ([]domain.Position, error) {
	if err := requireOrg(sess); err != nil {
		return nil, err
	}
	var out []domain.Position
	_, err := c.do(ctx, sess, call{
		op:     OpListPositions,
		method: http.MethodGet,
		path:   "/v1/position/" + seg(sess.OrgID),
	}, &out)
	return out, err
}

// ListSupervisors returns the positions eligible to be a direct supervisor.
func (c *Client) ListSupervisors(ctx context.Context, sess domain.Session) ([]domain.Position, error) {
	if err := requireOrg(sess); err != nil {
		return nil, err
	}
	var out []domain.Position
	_, err := c.do(ctx, sess, call{
		op:     OpListSupervisors,
		method: http.MethodGet,
		path:   "/v1/position/" + seg(sess.OrgID) + "/supervisors",
	}, &out)
	return out, err
}

func (c *Client) PositionHierarchy(ctx context.Context, sess domain.Session) ([]domain.PositionNode, error) {
	if err := requireOrg(sess); err != nil {
		return nil, err
	}
	var out []domain.PositionNode
	_, err := c.do(ctx, sess, call{
		op:     OpPositionHierarchy,
		method: http.MethodGet,
		path:   "/v1/position/" + seg(sess.OrgID) + "/hierarchy",
	}, &out)
	return out, err
}

type createPositionBody struct {
	domain.PositionInput
	OrganizationID domain.ID `json:"organizationId"`
}

func (c *Client) CreatePosition(ctx context.Context, sess domain.Session, in domain.PositionInput) (domain.Position, error) {
	if err := requireOrg(sess); err != nil {
		return domain.Position{}, err
	}
	if err := in.Validate(""); err != nil {
		return domain.Position{}, err
	}
	var out domain.Position
	_, err := c.do(ctx, sess, call{
		op:     OpCreatePosition,
		method: http.MethodPost,
		path:   "/v1/position",
		body:   createPositionBody{PositionInput: in, OrganizationID: sess.OrgID},
	}, &out)
	return out, err
}

// UpdatePosition sends only the fields that differ between current and edited,
// as a JSON merge patch.
func (c *Client) UpdatePosition(ctx context.Context, sess domain.Session, id domain.ID, current, edited domain.PositionInput) (domain.Position, error) {
	if err := requireToken(sess); err != nil {
		return domain.Position{}, err
	}
	if err := requireID("position id", id); err != nil {
		return domain.Position{}, err
	}
	if err := edited.Validate(id); err != nil {
		return domain.Position{}, err
	}
	current.Normalize()
	patch, err := mergePatch(current, edited)
	if err != nil {
		return domain.Position{}, err
	}
	if string(patch) == "{}" {
		return domain.Position{}, ErrNoChanges
	}
	var out domain.Position
	_, err = c.do(ctx, sess, call{
		op:     OpUpdatePosition,
		method: http.MethodPatch,
		path:   "/v1/position/" + seg(id),
		body:   json.RawMessage(patch),
	}, &out)
	return out, err
}

func mergePatch(current, edited domain.PositionInput) ([]byte, error) {
	before, err := json.Marshal(current)
	if err != nil {
		return nil, gerrors.Wrap(err, "marshal current position")
	}
	after, err := json.Marshal(edited)
	if err != nil {
		return nil, gerrors.Wrap(err, "marshal edited position")
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, gerrors.Wrap(err, "create merge patch")
	}
	return patch, nil
}

func (c *Client) DeletePosition(ctx context.Context, sess domain.Session, id domain.ID) error {
	if err := requireToken(sess); err != nil {
		return err
	}
	if err := requireID("position id", id); err != nil {
		return err
	}
	_, err := c.do(ctx, sess, call{
		op:     OpDeletePosition,
		method: http.MethodDelete,
		path:   "/v1/position/" + seg(id),
	}, nil)
	return err
}

func (c *Client) GetPosition(ctx context.Context, sess domain.Session, id domain.ID) (domain.Position, error) {
	if err := requireToken(sess); err != nil {
		return domain.Position{}, err
	}
	if err := requireID("position id", id); err != nil {
		return domain.Position{}, err
	}
	var out domain.Position
	_, err := c.do(ctx, sess, call{
		op:     OpGetPosition,
		method: http.MethodGet,
		path:   "/v1/position/" + seg(id),
	}, &out)
	return out, err
}
