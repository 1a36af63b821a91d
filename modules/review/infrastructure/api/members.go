package api

import (
	"context"
	"net/http"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

// TeamMembers fetches the roster of the supervisor's team.
func (c *Client) TeamMembers(ctx context.Context, sess domain.Session, supervisorID domain.ID) ([]domain.Member, error) {
	if err := requireOrg(sess); err != nil {
		return nil, err
	}
	supervisor := orSelf(sess, supervisorID)
	if err := requireID("supervisor id", supervisor); err != nil {
		return nil, err
	}
	var out []domain.Member
	_, err := c.do(ctx, sess, call{
		op:     OpTeamMembers,
		method: http.MethodGet,
		path:   "/v1/" + seg(sess.OrgID) + "/supervisor/" + seg(supervisor) + "/team-members",
	}, &out)
	return out, err
}
