package filter

import (
	"strings"
	"testing"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

func TestEngineCheck(t *testing.T) {
	engine := NewEngine(DefaultRules())
	long := strings.Repeat("x", 20)

	tests := []struct {
		name string
		rec  models.CanonicalRecord
		want Reason
	}{
		{
			name: "comment accepted",
			rec:  models.CanonicalRecord{Kind: models.KindComment, ID: "c1", Body: str(long)},
			want: Accepted,
		},
		{
			name: "comment short body",
			rec:  models.CanonicalRecord{Kind: models.KindComment, ID: "c1", Body: str("too short")},
			want: ReasonShortBody,
		},
		{
			name: "comment removed",
			rec:  models.CanonicalRecord{Kind: models.KindComment, ID: "c1", Body: str("[deleted]")},
			want: ReasonRemoved,
		},
		{
			name: "comment counts characters not bytes",
			rec:  models.CanonicalRecord{Kind: models.KindComment, ID: "c1", Body: str(strings.Repeat("é", 19))},
			want: ReasonShortBody,
		},
		{
			name: "missing id",
			rec:  models.CanonicalRecord{Kind: models.KindComment, Body: str(long)},
			want: ReasonMissingID,
		},
		{
			name: "internal accepted",
			rec:  models.CanonicalRecord{Kind: models.KindPostInternal, ID: "p1", Title: str("t"), Selftext: str(long)},
			want: Accepted,
		},
		{
			name: "internal empty title",
			rec:  models.CanonicalRecord{Kind: models.KindPostInternal, ID: "p1", Title: str(""), Selftext: str(long)},
			want: ReasonMissingTitle,
		},
		{
			name: "internal short selftext",
			rec:  models.CanonicalRecord{Kind: models.KindPostInternal, ID: "p1", Title: str("title"), Selftext: str("short")},
			want: ReasonShortText,
		},
		{
			name: "internal removed selftext",
			rec:  models.CanonicalRecord{Kind: models.KindPostInternal, ID: "p1", Title: str("title"), Selftext: str("removed by reddit moderators here")},
			want: ReasonRemoved,
		},
		{
			name: "internal removed title",
			rec:  models.CanonicalRecord{Kind: models.KindPostInternal, ID: "p1", Title: str("[removed]"), Selftext: str(long)},
			want: ReasonRemoved,
		},
		{
			name: "external accepted",
			rec:  models.CanonicalRecord{Kind: models.KindPostExternal, ID: "p2", Title: str("hello"), URL: str("https://x.io"), Domain: str("x.io")},
			want: Accepted,
		},
		{
			name: "external short title",
			rec:  models.CanonicalRecord{Kind: models.KindPostExternal, ID: "p2", Title: str("hi"), URL: str("https://x.io"), Domain: str("x.io")},
			want: ReasonShortTitle,
		},
		{
			name: "external missing url",
			rec:  models.CanonicalRecord{Kind: models.KindPostExternal, ID: "p2", Title: str("hello"), Domain: str("x.io")},
			want: ReasonMissingURL,
		},
		{
			name: "external missing domain",
			rec:  models.CanonicalRecord{Kind: models.KindPostExternal, ID: "p2", Title: str("hello"), URL: str("https://x.io"), Domain: str("")},
			want: ReasonMissingDom,
		},
		{
			name: "external removed title",
			rec:  models.CanonicalRecord{Kind: models.KindPostExternal, ID: "p2", Title: str("[deleted]"), URL: str("https://x.io"), Domain: str("x.io")},
			want: ReasonRemoved,
		},
		{
			name: "unknown kind",
			rec:  models.CanonicalRecord{Kind: "poll", ID: "p3"},
			want: ReasonUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Check(&tt.rec))
		})
	}
}
