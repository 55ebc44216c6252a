package types

import "time"

// ReferenceKind is the relationship a post has to another post
type ReferenceKind string

const (
	Retweeted ReferenceKind = "retweeted"
	Quoted    ReferenceKind = "quoted"
	RepliedTo ReferenceKind = "replied_to"
)

// Reference links a post to another post it retweets, quotes or replies to
type Reference struct {
	Kind     ReferenceKind `json:"kind"`
	TargetID string        `json:"target_id"`
}

// User is an X account as returned by the API
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// PostRecord is one of the authenticated user's posts, enriched with the
// original authors of the posts it retweets.
type PostRecord struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	CreatedAt  time.Time   `json:"created_at"`
	References []Reference `json:"references"`

	// RetweetAuthors maps a retweeted post id to its author id. Only targets
	// present in the expansion data of the page the post came from appear here.
	RetweetAuthors map[string]string `json:"retweet_authors,omitempty"`
}

// RetweetAuthor returns the resolved author of a retweeted target, if known.
func (p PostRecord) RetweetAuthor(targetID string) (string, bool) {
	id, ok := p.RetweetAuthors[targetID]
	return id, ok && id != ""
}

// ExpansionIndex maps referenced post ids to their author ids for one page
type ExpansionIndex map[string]string

// PreserveSet holds author ids whose retweets are kept
type PreserveSet map[string]struct{}

func NewPreserveSet(ids ...string) PreserveSet {
	s := make(PreserveSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s PreserveSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

func (s PreserveSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s PreserveSet) Len() int {
	return len(s)
}

// Outcome is the classification result for a post
type Outcome int

const (
	Delete Outcome = iota
	Preserve
)

func (o Outcome) String() string {
	if o == Preserve {
		return "preserve"
	}
	return "delete"
}

// Tally accumulates deletion results for one run
type Tally struct {
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
	Preserved int `json:"preserved"`
}

// RawPost is a post as listed by the platform, before enrichment
type RawPost struct {
	ID         string
	Text       string
	CreatedAt  time.Time
	References []Reference
}

// Page is one page of the user's timeline plus the expansion data that came
// with it.
type Page struct {
	Posts      []RawPost
	Expansions ExpansionIndex
	NextCursor string
}

// Preview returns the post text cut to n runes, with "..." appended when cut
func (p PostRecord) Preview(n int) string {
	runes := []rune(p.Text)
	if len(runes) <= n {
		return p.Text
	}
	return string(runes[:n]) + "..."
}
