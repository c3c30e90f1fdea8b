package zendesk

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SearchArticles runs a help center full-text search. It uses the search
// timeout since it sits on a user-facing path.
func (c *Client) SearchArticles(ctx context.Context, query, locale string) ([]ArticleHit, error) {
	params := url.Values{"query": {query}}
	if locale != "" {
		params.Set("locale", locale)
	}

	var out articleSearchPage
	if err := c.search(ctx, "/help_center/articles/search.json", params, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetArticle returns the full article. locale may be empty.
func (c *Client) GetArticle(ctx context.Context, id int64, locale string) (*Article, error) {
	path := fmt.Sprintf("/help_center/articles/%d.json", id)
	if locale != "" {
		path = fmt.Sprintf("/help_center/%s/articles/%d.json", url.PathEscape(locale), id)
	}

	var out articleEnvelope
	if err := c.search(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// RewriteDomain replaces the origin prefix of link with publicDomain and
// leaves the path untouched. Links outside origin, and every link when
// publicDomain is empty, are returned unchanged.
func RewriteDomain(link, origin, publicDomain string) string {
	if publicDomain == "" || origin == "" || !strings.HasPrefix(link, origin) {
		return link
	}
	rest := strings.TrimPrefix(link, origin)
	if rest != "" && !strings.HasPrefix(rest, "/") && !strings.HasPrefix(rest, "?") {
		// acme.zendesk.com must not match acme.zendesk.community
		return link
	}
	return strings.TrimRight(publicDomain, "/") + rest
}
