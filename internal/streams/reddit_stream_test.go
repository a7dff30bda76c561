package streams

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/redditcanon/internal/clients"
	"github.com/spacesedan/redditcanon/internal/sources"
)

type fakeListings struct {
	pages [][]clients.Thing
	seen  []string
	err   error
}

func (f *fakeListings) Listing(_ context.Context, subreddit, listing, after string, _ int) (*clients.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seen = append(f.seen, subreddit+"/"+listing+"@"+after)
	out := &clients.Listing{}
	n := len(f.seen) - 1
	if n < len(f.pages) {
		out.Data.Children = f.pages[n]
		if n+1 < len(f.pages) {
			out.Data.After = fmt.Sprintf("t3_page%d", n+1)
		}
	}
	return out, nil
}

func thing(kind, id string) clients.Thing {
	return clients.Thing{Kind: kind, Data: map[string]any{"id": id}}
}

func TestRedditStream_FollowsCursor(t *testing.T) {
	f := &fakeListings{pages: [][]clients.Thing{
		{thing("t3", "a"), thing("t3", "b")},
		{thing("t3", "c")},
	}}
	s, err := RedditOpener{Client: f}.Open(context.Background(), "r/datasets", sources.Partition{Name: "posts", Config: "new"})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 3)
	assert.Equal(t, "c", recs[2].Fields["id"])
	assert.Equal(t, "t3", recs[0].Fields[sources.REDDIT_KIND_FIELD])
	assert.Equal(t, "r/datasets", recs[0].Source)
	assert.Equal(t, []string{"datasets/new@", "datasets/new@t3_page1"}, f.seen)
}

func TestRedditOpener_Errors(t *testing.T) {
	_, err := RedditOpener{Client: &fakeListings{err: errors.New("forbidden")}}.Open(context.Background(), "r/private", sources.Partition{Config: "new"})
	require.Error(t, err)

	_, err = RedditOpener{Client: &fakeListings{}}.Open(context.Background(), "r/", sources.Partition{Config: "new"})
	require.Error(t, err)
}
