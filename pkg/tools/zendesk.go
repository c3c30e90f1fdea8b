package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/internal/aggregate"
	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
	"github.com/kagent-dev/zendesk-mcp/pkg/zendesk"
)

// NotConfiguredMessage is returned by every Zendesk tool while the gateway
// runs without credentials.
const NotConfiguredMessage = "Zendesk client is not configured. Set ZENDESK_SUBDOMAIN, ZENDESK_EMAIL and ZENDESK_API_TOKEN and restart the server."

var (
	ticketPriorities = []string{"low", "normal", "high", "urgent"}
	ticketTypes      = []string{"problem", "incident", "question", "task"}
	ticketStatuses   = []string{"new", "open", "pending", "hold", "solved", "closed"}
	searchSortFields = []string{"updated_at", "created_at", "priority", "status", "ticket_type"}
	sortOrders       = []string{"asc", "desc"}
)

// API is the part of the Zendesk client the tools call. *zendesk.Client
// implements it.
type API interface {
	Origin() string
	GetTicket(ctx context.Context, id int64) (zendesk.Record, error)
	ListTicketComments(ctx context.Context, id int64, opts ...aggregate.PaginateOption) ([]zendesk.Record, error)
	CreateTicket(ctx context.Context, input zendesk.TicketInput) (zendesk.Record, error)
	UpdateTicket(ctx context.Context, id int64, input zendesk.TicketInput) (zendesk.Record, error)
	AddTicketComment(ctx context.Context, id int64, body string, public bool) (zendesk.Record, error)
	SearchTickets(ctx context.Context, q zendesk.SearchQuery) (*zendesk.SearchResults, error)
	GetUser(ctx context.Context, id int64) (zendesk.Record, error)
	GetCurrentUser(ctx context.Context) (zendesk.Record, error)
	GetOrganization(ctx context.Context, id int64) (zendesk.Record, error)
	ListGroups(ctx context.Context, opts ...aggregate.PaginateOption) ([]zendesk.Record, error)
	SearchArticles(ctx context.Context, query, locale string) ([]zendesk.ArticleHit, error)
	GetArticle(ctx context.Context, id int64, locale string) (*zendesk.Article, error)
}

var _ API = (*zendesk.Client)(nil)

// ZendeskOptions tunes the Zendesk tools
type ZendeskOptions struct {
	// PublicDomain replaces the Zendesk origin in article links when set
	PublicDomain string
	Enrichment   aggregate.EnrichOptions
	// MaxPages bounds paged collections; zero means unbounded
	MaxPages int
}

// HelpCenterArticle is one enriched help center search result
type HelpCenterArticle struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Snippet    string   `json:"snippet,omitempty"`
	Body       string   `json:"body"`
	SectionID  int64    `json:"section_id,omitempty"`
	Locale     string   `json:"locale,omitempty"`
	LabelNames []string `json:"label_names,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// HelpCenterSearchResult is the payload of search_help_center. Partial
// failures are reported in Error while the call itself succeeds.
type HelpCenterSearchResult struct {
	Query    string              `json:"query"`
	Count    int                 `json:"count"`
	Articles []HelpCenterArticle `json:"articles"`
	Message  string              `json:"message,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// RegisterZendesk adds the Zendesk tool set to reg in declaration order.
// A nil api registers every tool with a handler that fails with
// NotConfiguredMessage, so the gateway still lists its tools.
func RegisterZendesk(reg *Registry, api API, opts ZendeskOptions) error {
	z := &zendeskTools{api: api, opts: opts}

	for _, d := range z.descriptors() {
		handler := d.Handler
		if api == nil {
			handler = notConfigured
		}
		if err := reg.Register(d.Tool, handler); err != nil {
			return err
		}
	}
	return nil
}

func notConfigured(context.Context, map[string]any) (any, error) {
	return nil, apperrors.New(apperrors.ErrCodeConfiguration, NotConfiguredMessage, nil)
}

type zendeskTools struct {
	api  API
	opts ZendeskOptions
}

func (z *zendeskTools) descriptors() []Descriptor {
	idParam := func(what string) mcp.ToolOption {
		return mcp.WithNumber("id", mcp.Required(), mcp.Description(fmt.Sprintf("Numeric ID of the %s", what)))
	}

	return []Descriptor{
		{
			Tool: mcp.NewTool("get_ticket",
				mcp.WithDescription("Retrieve a Zendesk ticket by ID"),
				idParam("ticket"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.getTicket,
		},
		{
			Tool: mcp.NewTool("get_ticket_comments",
				mcp.WithDescription("Retrieve the complete comment history of a ticket, oldest first"),
				idParam("ticket"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.getTicketComments,
		},
		{
			Tool: mcp.NewTool("create_ticket",
				mcp.WithDescription("Create a new Zendesk ticket"),
				mcp.WithString("subject", mcp.Required(), mcp.Description("Ticket subject")),
				mcp.WithString("description", mcp.Required(), mcp.Description("Body of the first comment")),
				mcp.WithString("priority", mcp.Enum(ticketPriorities...), mcp.Description("Ticket priority")),
				mcp.WithString("type", mcp.Enum(ticketTypes...), mcp.Description("Ticket type")),
				mcp.WithArray("tags", mcp.Items(map[string]any{"type": "string"}), mcp.Description("Tags to set")),
				mcp.WithString("requester_email", mcp.Description("Email of the end user the ticket is filed for")),
				mcp.WithString("requester_name", mcp.Description("Name of the requester, used with requester_email")),
				mcp.WithNumber("assignee_id", mcp.Description("Agent to assign")),
				mcp.WithNumber("group_id", mcp.Description("Group to assign")),
				mcp.WithDestructiveHintAnnotation(false),
			),
			Handler: z.createTicket,
		},
		{
			Tool: mcp.NewTool("update_ticket",
				mcp.WithDescription("Update fields of an existing ticket, optionally adding a comment"),
				idParam("ticket"),
				mcp.WithString("subject", mcp.Description("New subject")),
				mcp.WithString("status", mcp.Enum(ticketStatuses...), mcp.Description("New status")),
				mcp.WithString("priority", mcp.Enum(ticketPriorities...), mcp.Description("New priority")),
				mcp.WithString("type", mcp.Enum(ticketTypes...), mcp.Description("New type")),
				mcp.WithArray("tags", mcp.Items(map[string]any{"type": "string"}), mcp.Description("Replacement tag list")),
				mcp.WithNumber("assignee_id", mcp.Description("Agent to assign")),
				mcp.WithNumber("group_id", mcp.Description("Group to assign")),
				mcp.WithString("comment", mcp.Description("Comment to add with the update")),
				mcp.WithBoolean("public", mcp.DefaultBool(true), mcp.Description("Whether the comment is visible to the requester")),
				mcp.WithIdempotentHintAnnotation(true),
			),
			Handler: z.updateTicket,
		},
		{
			Tool: mcp.NewTool("add_ticket_comment",
				mcp.WithDescription("Add a public reply or an internal note to a ticket"),
				idParam("ticket"),
				mcp.WithString("body", mcp.Required(), mcp.Description("Comment text")),
				mcp.WithBoolean("public", mcp.DefaultBool(true), mcp.Description("False adds an internal note")),
			),
			Handler: z.addTicketComment,
		},
		{
			Tool: mcp.NewTool("search_tickets",
				mcp.WithDescription("Search tickets with Zendesk search syntax, e.g. \"status:open printer\""),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
				mcp.WithString("sort_by", mcp.Enum(searchSortFields...), mcp.Description("Sort field")),
				mcp.WithString("sort_order", mcp.Enum(sortOrders...), mcp.Description("Sort direction")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.searchTickets,
		},
		{
			Tool: mcp.NewTool("get_user",
				mcp.WithDescription("Retrieve a Zendesk user by ID"),
				idParam("user"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.getUser,
		},
		{
			Tool: mcp.NewTool("get_current_user",
				mcp.WithDescription("Retrieve the user the gateway authenticates as"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.getCurrentUser,
		},
		{
			Tool: mcp.NewTool("get_organization",
				mcp.WithDescription("Retrieve a Zendesk organization by ID"),
				idParam("organization"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.getOrganization,
		},
		{
			Tool: mcp.NewTool("list_groups",
				mcp.WithDescription("List every agent group of the account"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.listGroups,
		},
		{
			Tool: mcp.NewTool("search_help_center",
				mcp.WithDescription("Search published help center articles and return the best public matches with their content"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
				mcp.WithString("locale", mcp.Description("Help center locale, e.g. en-us")),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: z.searchHelpCenter,
		},
		{
			Tool: mcp.NewTool("get_article",
				mcp.WithDescription("Retrieve a help center article by ID"),
				idParam("article"),
				mcp.WithString("locale", mcp.Description("Help center locale, e.g. en-us")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: z.getArticle,
		},
	}
}

func (z *zendeskTools) paginateOptions(ctx context.Context, what string) []aggregate.PaginateOption {
	report := ProgressFrom(ctx)
	return []aggregate.PaginateOption{
		aggregate.WithMaxPages(z.opts.MaxPages),
		aggregate.WithPageObserver(func(page, total int) {
			report(float64(page), 0, fmt.Sprintf("Fetched page %d (%d %s)", page, total, what))
		}),
	}
}

func (z *zendeskTools) getTicket(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}
	return z.api.GetTicket(ctx, id)
}

func (z *zendeskTools) getTicketComments(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}

	comments, err := z.api.ListTicketComments(ctx, id, z.paginateOptions(ctx, "comments")...)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []zendesk.Record{}
	}
	return map[string]any{
		"ticket_id": id,
		"count":     len(comments),
		"comments":  comments,
	}, nil
}

func (z *zendeskTools) createTicket(ctx context.Context, args map[string]any) (any, error) {
	subject, err := requireString(args, "subject")
	if err != nil {
		return nil, err
	}
	description, err := requireString(args, "description")
	if err != nil {
		return nil, err
	}

	input := zendesk.TicketInput{
		Subject: subject,
		Comment: &zendesk.CommentInput{Body: description},
	}
	if err := z.ticketFields(args, &input); err != nil {
		return nil, err
	}

	email, err := optionalString(args, "requester_email")
	if err != nil {
		return nil, err
	}
	name, err := optionalString(args, "requester_name")
	if err != nil {
		return nil, err
	}
	if email != "" {
		input.Requester = &zendesk.Requester{Name: name, Email: email}
	}

	return z.api.CreateTicket(ctx, input)
}

func (z *zendeskTools) updateTicket(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}

	var input zendesk.TicketInput
	if input.Subject, err = optionalString(args, "subject"); err != nil {
		return nil, err
	}
	if input.Status, err = optionalEnum(args, "status", ticketStatuses); err != nil {
		return nil, err
	}
	if err := z.ticketFields(args, &input); err != nil {
		return nil, err
	}

	comment, err := optionalString(args, "comment")
	if err != nil {
		return nil, err
	}
	if comment != "" {
		public, err := optionalBool(args, "public", true)
		if err != nil {
			return nil, err
		}
		input.Comment = &zendesk.CommentInput{Body: comment, Public: &public}
	}

	if isEmptyUpdate(input) {
		return nil, invalidArgument("update_ticket needs at least one field to change")
	}
	return z.api.UpdateTicket(ctx, id, input)
}

// ticketFields reads the fields create and update share
func (z *zendeskTools) ticketFields(args map[string]any, input *zendesk.TicketInput) error {
	var err error
	if input.Priority, err = optionalEnum(args, "priority", ticketPriorities); err != nil {
		return err
	}
	if input.Type, err = optionalEnum(args, "type", ticketTypes); err != nil {
		return err
	}
	if input.Tags, err = optionalStrings(args, "tags"); err != nil {
		return err
	}
	if input.AssigneeID, _, err = optionalID(args, "assignee_id"); err != nil {
		return err
	}
	if input.GroupID, _, err = optionalID(args, "group_id"); err != nil {
		return err
	}
	return nil
}

func isEmptyUpdate(in zendesk.TicketInput) bool {
	return in.Subject == "" && in.Status == "" && in.Priority == "" && in.Type == "" &&
		in.Tags == nil && in.AssigneeID == 0 && in.GroupID == 0 && in.Comment == nil
}

func (z *zendeskTools) addTicketComment(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}
	body, err := requireString(args, "body")
	if err != nil {
		return nil, err
	}
	public, err := optionalBool(args, "public", true)
	if err != nil {
		return nil, err
	}
	return z.api.AddTicketComment(ctx, id, body, public)
}

func (z *zendeskTools) searchTickets(ctx context.Context, args map[string]any) (any, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	q := zendesk.SearchQuery{Query: query}
	if q.SortBy, err = optionalEnum(args, "sort_by", searchSortFields); err != nil {
		return nil, err
	}
	if q.SortOrder, err = optionalEnum(args, "sort_order", sortOrders); err != nil {
		return nil, err
	}
	return z.api.SearchTickets(ctx, q)
}

func (z *zendeskTools) getUser(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}
	return z.api.GetUser(ctx, id)
}

func (z *zendeskTools) getCurrentUser(ctx context.Context, _ map[string]any) (any, error) {
	return z.api.GetCurrentUser(ctx)
}

func (z *zendeskTools) getOrganization(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}
	return z.api.GetOrganization(ctx, id)
}

func (z *zendeskTools) listGroups(ctx context.Context, _ map[string]any) (any, error) {
	groups, err := z.api.ListGroups(ctx, z.paginateOptions(ctx, "groups")...)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []zendesk.Record{}
	}
	return map[string]any{"count": len(groups), "groups": groups}, nil
}

func (z *zendeskTools) searchHelpCenter(ctx context.Context, args map[string]any) (any, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	locale, err := optionalString(args, "locale")
	if err != nil {
		return nil, err
	}

	hits, err := z.api.SearchArticles(ctx, query, locale)
	if err != nil {
		return nil, err
	}

	origin := z.api.Origin()
	res := aggregate.Enrich(ctx, hits,
		func(hit zendesk.ArticleHit) string { return strconv.FormatInt(hit.ID, 10) },
		func(ctx context.Context, hit zendesk.ArticleHit) (*zendesk.Article, error) {
			return z.api.GetArticle(ctx, hit.ID, locale)
		},
		func(hit zendesk.ArticleHit, article *zendesk.Article) (HelpCenterArticle, bool) {
			if !article.IsPublic() {
				return HelpCenterArticle{}, false
			}
			link := article.HTMLURL
			if link == "" {
				link = hit.HTMLURL
			}
			return HelpCenterArticle{
				ID:         hit.ID,
				Title:      firstNonEmpty(article.Title, hit.Title),
				URL:        zendesk.RewriteDomain(link, origin, z.opts.PublicDomain),
				Snippet:    hit.Snippet,
				Body:       article.Body,
				SectionID:  article.SectionID,
				Locale:     firstNonEmpty(article.Locale, hit.Locale),
				LabelNames: article.LabelNames,
				UpdatedAt:  firstNonEmpty(article.UpdatedAt, hit.UpdatedAt),
			}, true
		},
		z.opts.Enrichment,
	)

	if res.Failures != nil {
		ctrllog.FromContext(ctx).WithName("search-help-center").Error(res.Failures.ErrorOrNil(),
			"Some articles could not be loaded", "query", query, "failed", res.Failed, "candidates", res.Candidates)
	}

	out := HelpCenterSearchResult{
		Query:    query,
		Count:    len(res.Items),
		Articles: res.Items,
	}
	if out.Articles == nil {
		out.Articles = []HelpCenterArticle{}
	}
	if res.Failed > 0 {
		out.Error = fmt.Sprintf("%d of %d candidate articles could not be loaded", res.Failed, res.Candidates)
	}

	switch {
	case res.Matched == 0:
		out.Message = fmt.Sprintf("No help center articles matched %q.", query)
	case len(res.Items) == 0:
		out.Message = fmt.Sprintf("Found %d matching articles but none are publicly available (%d filtered, %d failed to load).",
			res.Matched, res.Filtered, res.Failed)
	}
	return out, nil
}

func (z *zendeskTools) getArticle(ctx context.Context, args map[string]any) (any, error) {
	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}
	locale, err := optionalString(args, "locale")
	if err != nil {
		return nil, err
	}

	article, err := z.api.GetArticle(ctx, id, locale)
	if err != nil {
		return nil, err
	}
	article.HTMLURL = zendesk.RewriteDomain(article.HTMLURL, z.api.Origin(), z.opts.PublicDomain)
	return article, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
