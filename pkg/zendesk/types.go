package zendesk

// Record is a Zendesk resource passed through to callers unmodified.
type Record map[string]any

// TicketInput is the writable subset of a ticket. Zero fields are omitted
// from the request.
type TicketInput struct {
	Subject    string        `json:"subject,omitempty"`
	Comment    *CommentInput `json:"comment,omitempty"`
	Priority   string        `json:"priority,omitempty"`
	Status     string        `json:"status,omitempty"`
	Type       string        `json:"type,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	AssigneeID int64         `json:"assignee_id,omitempty"`
	GroupID    int64         `json:"group_id,omitempty"`
	Requester  *Requester    `json:"requester,omitempty"`
}

// CommentInput is a comment added through a ticket create or update
type CommentInput struct {
	Body   string `json:"body"`
	Public *bool  `json:"public,omitempty"`
}

// Requester names the end user a new ticket is filed for
type Requester struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// SearchQuery parameterises a ticket search
type SearchQuery struct {
	Query     string
	SortBy    string
	SortOrder string
}

// SearchResults is the first page of a search
type SearchResults struct {
	Results  []Record `json:"results"`
	Count    int      `json:"count"`
	NextPage *string  `json:"next_page,omitempty"`
}

// ArticleHit is a help center search result
type ArticleHit struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	HTMLURL   string `json:"html_url"`
	Snippet   string `json:"snippet"`
	SectionID int64  `json:"section_id"`
	Locale    string `json:"locale"`
	UpdatedAt string `json:"updated_at"`
}

// Article is the full help center article
type Article struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	HTMLURL       string   `json:"html_url"`
	Draft         bool     `json:"draft"`
	UserSegmentID *int64   `json:"user_segment_id"`
	SectionID     int64    `json:"section_id"`
	Locale        string   `json:"locale"`
	LabelNames    []string `json:"label_names"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// IsPublic reports whether anonymous visitors can read the article:
// published and not restricted to a user segment.
func (a *Article) IsPublic() bool {
	return a != nil && !a.Draft && a.UserSegmentID == nil
}

type ticketEnvelope struct {
	Ticket Record `json:"ticket"`
}

type ticketInputEnvelope struct {
	Ticket TicketInput `json:"ticket"`
}

type commentsPage struct {
	Comments []Record `json:"comments"`
	NextPage *string  `json:"next_page"`
}

type userEnvelope struct {
	User Record `json:"user"`
}

type organizationEnvelope struct {
	Organization Record `json:"organization"`
}

type groupsPage struct {
	Groups   []Record `json:"groups"`
	NextPage *string  `json:"next_page"`
}

type articleSearchPage struct {
	Results []ArticleHit `json:"results"`
}

type articleEnvelope struct {
	Article Article `json:"article"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
