package tools

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/kagent-dev/zendesk-mcp/internal/aggregate"
	"github.com/kagent-dev/zendesk-mcp/pkg/zendesk"
)

// MockAPI is a mock implementation of API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Origin() string {
	return "https://acme.zendesk.com"
}

func (m *MockAPI) record(args mock.Arguments) (zendesk.Record, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(zendesk.Record), args.Error(1)
}

// paged replays the configured pages through the real aggregator so page
// options take effect.
func (m *MockAPI) paged(ctx context.Context, args mock.Arguments, opts []aggregate.PaginateOption) ([]zendesk.Record, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	pages := args.Get(0).([][]zendesk.Record)
	fetch := func(ctx context.Context, path string) (aggregate.Page[zendesk.Record], error) {
		var n int
		_, _ = fmt.Sscanf(path, "page-%d", &n)
		page := aggregate.Page[zendesk.Record]{Items: pages[n]}
		if n+1 < len(pages) {
			page.Next = fmt.Sprintf("page-%d", n+1)
		}
		return page, nil
	}
	return aggregate.Paginate(ctx, "page-0", fetch, opts...)
}

func (m *MockAPI) GetTicket(ctx context.Context, id int64) (zendesk.Record, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockAPI) ListTicketComments(ctx context.Context, id int64, opts ...aggregate.PaginateOption) ([]zendesk.Record, error) {
	return m.paged(ctx, m.Called(ctx, id), opts)
}

func (m *MockAPI) CreateTicket(ctx context.Context, input zendesk.TicketInput) (zendesk.Record, error) {
	return m.record(m.Called(ctx, input))
}

func (m *MockAPI) UpdateTicket(ctx context.Context, id int64, input zendesk.TicketInput) (zendesk.Record, error) {
	return m.record(m.Called(ctx, id, input))
}

func (m *MockAPI) AddTicketComment(ctx context.Context, id int64, body string, public bool) (zendesk.Record, error) {
	return m.record(m.Called(ctx, id, body, public))
}

func (m *MockAPI) SearchTickets(ctx context.Context, q zendesk.SearchQuery) (*zendesk.SearchResults, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zendesk.SearchResults), args.Error(1)
}

func (m *MockAPI) GetUser(ctx context.Context, id int64) (zendesk.Record, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockAPI) GetCurrentUser(ctx context.Context) (zendesk.Record, error) {
	return m.record(m.Called(ctx))
}

func (m *MockAPI) GetOrganization(ctx context.Context, id int64) (zendesk.Record, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockAPI) ListGroups(ctx context.Context, opts ...aggregate.PaginateOption) ([]zendesk.Record, error) {
	return m.paged(ctx, m.Called(ctx), opts)
}

func (m *MockAPI) SearchArticles(ctx context.Context, query, locale string) ([]zendesk.ArticleHit, error) {
	args := m.Called(ctx, query, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zendesk.ArticleHit), args.Error(1)
}

func (m *MockAPI) GetArticle(ctx context.Context, id int64, locale string) (*zendesk.Article, error) {
	args := m.Called(ctx, id, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zendesk.Article), args.Error(1)
}
