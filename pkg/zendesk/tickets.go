package zendesk

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kagent-dev/zendesk-mcp/internal/aggregate"
)

// GetTicket returns a single ticket
func (c *Client) GetTicket(ctx context.Context, id int64) (Record, error) {
	var out ticketEnvelope
	if err := c.Get(ctx, fmt.Sprintf("/tickets/%d.json", id), nil, &out); err != nil {
		return nil, err
	}
	return out.Ticket, nil
}

// ListTicketComments returns the complete comment history of a ticket,
// following next_page links until the collection is exhausted.
func (c *Client) ListTicketComments(ctx context.Context, id int64, opts ...aggregate.PaginateOption) ([]Record, error) {
	fetch := func(ctx context.Context, path string) (aggregate.Page[Record], error) {
		var page commentsPage
		if err := c.Get(ctx, path, nil, &page); err != nil {
			return aggregate.Page[Record]{}, err
		}
		return aggregate.Page[Record]{Items: page.Comments, Next: deref(page.NextPage)}, nil
	}

	opts = append([]aggregate.PaginateOption{aggregate.WithNormalizer(c.RelativePath)}, opts...)
	return aggregate.Paginate(ctx, fmt.Sprintf("/tickets/%d/comments.json", id), fetch, opts...)
}

// CreateTicket creates a ticket
func (c *Client) CreateTicket(ctx context.Context, input TicketInput) (Record, error) {
	var out ticketEnvelope
	if err := c.Post(ctx, "/tickets.json", ticketInputEnvelope{Ticket: input}, &out); err != nil {
		return nil, err
	}
	return out.Ticket, nil
}

// UpdateTicket updates a ticket; a Comment in input is appended to it
func (c *Client) UpdateTicket(ctx context.Context, id int64, input TicketInput) (Record, error) {
	var out ticketEnvelope
	if err := c.Put(ctx, fmt.Sprintf("/tickets/%d.json", id), ticketInputEnvelope{Ticket: input}, &out); err != nil {
		return nil, err
	}
	return out.Ticket, nil
}

// SearchTickets runs a ticket search and returns the first page of results
func (c *Client) SearchTickets(ctx context.Context, q SearchQuery) (*SearchResults, error) {
	query := strings.TrimSpace(q.Query)
	if !strings.Contains(query, "type:") {
		query = "type:ticket " + query
	}

	params := url.Values{"query": {query}}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sort_order", q.SortOrder)
	}

	var out SearchResults
	if err := c.Get(ctx, "/search.json", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddTicketComment appends a comment to a ticket. Private comments are
// internal notes visible to agents only.
func (c *Client) AddTicketComment(ctx context.Context, id int64, body string, public bool) (Record, error) {
	return c.UpdateTicket(ctx, id, TicketInput{
		Comment: &CommentInput{Body: body, Public: &public},
	})
}
