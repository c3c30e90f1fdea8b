package zendesk

import (
	"context"
	"fmt"

	"github.com/kagent-dev/zendesk-mcp/internal/aggregate"
)

// GetUser returns a single user
func (c *Client) GetUser(ctx context.Context, id int64) (Record, error) {
	var out userEnvelope
	if err := c.Get(ctx, fmt.Sprintf("/users/%d.json", id), nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// GetCurrentUser returns the user the credentials authenticate as
func (c *Client) GetCurrentUser(ctx context.Context) (Record, error) {
	var out userEnvelope
	if err := c.Get(ctx, "/users/me.json", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// GetOrganization returns a single organization
func (c *Client) GetOrganization(ctx context.Context, id int64) (Record, error) {
	var out organizationEnvelope
	if err := c.Get(ctx, fmt.Sprintf("/organizations/%d.json", id), nil, &out); err != nil {
		return nil, err
	}
	return out.Organization, nil
}

// ListGroups returns every agent group of the account
func (c *Client) ListGroups(ctx context.Context, opts ...aggregate.PaginateOption) ([]Record, error) {
	fetch := func(ctx context.Context, path string) (aggregate.Page[Record], error) {
		var page groupsPage
		if err := c.Get(ctx, path, nil, &page); err != nil {
			return aggregate.Page[Record]{}, err
		}
		return aggregate.Page[Record]{Items: page.Groups, Next: deref(page.NextPage)}, nil
	}

	opts = append([]aggregate.PaginateOption{aggregate.WithNormalizer(c.RelativePath)}, opts...)
	return aggregate.Paginate(ctx, "/groups.json", fetch, opts...)
}
