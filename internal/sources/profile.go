// Package sources describes the upstream datasets the pipeline knows how
// to read: their partitions, field names and per-source rules.
package sources

import (
	"fmt"
	"path"
	"sort"

	"github.com/spacesedan/redditcanon/internal/classify"
	"github.com/spacesedan/redditcanon/internal/models"
)

// Partition is one stream of a source, e.g. the comments config.
type Partition struct {
	Name     string
	Config   string
	Split    string
	Category models.Type
}

// Provenance says where subreddit_id and subreddit_name come from. When
// Constant is set the values are fixed for the whole run.
type Provenance struct {
	Constant bool
	ID       string
	Name     string

	IDField   string
	NameField string
}

// Fields maps canonical fields to the source's own field names.
type Fields struct {
	ID          string
	Type        string
	Created     string
	Score       string
	Permalink   string
	Body        string
	Sentiment   string
	Selftext    string
	Title       string
	URL         string
	Domain      string
	NumComments string
}

func DefaultFields() Fields {
	return Fields{
		ID:          "id",
		Type:        "type",
		Created:     "created_utc",
		Score:       "score",
		Permalink:   "permalink",
		Body:        "body",
		Sentiment:   "sentiment",
		Selftext:    "selftext",
		Title:       "title",
		URL:         "url",
		Domain:      "domain",
		NumComments: "num_comments",
	}
}

type Profile struct {
	Name       string
	Dataset    string
	Partitions []Partition
	Router     classify.KindRouter
	Provenance Provenance
	Fields     Fields
	TypeCodes  classify.IntConvention
	// TypeAliases maps source-specific type strings before any other
	// strategy sees them.
	TypeAliases map[string]models.Type
	// ImplyType lets records without any type value take their partition's
	// category. Off by default: unclassified records are dropped.
	ImplyType bool
}

// Slug names output files, e.g. "the-reddit-dataset-dataset".
func (p Profile) Slug() string {
	return path.Base(p.Dataset)
}

// Classifier returns the ordered type resolution policy for a partition.
func (p Profile) Classifier(part Partition) *classify.Classifier {
	strategies := classify.DefaultStrategies(p.TypeCodes)
	if len(p.TypeAliases) > 0 {
		strategies = append([]classify.Strategy{classify.Aliases(p.TypeAliases)}, strategies...)
	}
	if p.ImplyType {
		strategies = append(strategies, classify.PartitionDefault{Type: part.Category})
	}
	return classify.NewClassifier(strategies...)
}

// Kinds lists the kinds the profile's partitions can produce.
func (p Profile) Kinds() []models.Kind {
	var kinds []models.Kind
	for _, k := range models.Kinds {
		for _, part := range p.Partitions {
			if k.Type() == part.Category {
				kinds = append(kinds, k)
				break
			}
		}
	}
	return kinds
}

// Partition returns the partition with the given category.
func (p Profile) Partition(category models.Type) (Partition, bool) {
	for _, part := range p.Partitions {
		if part.Category == category {
			return part, true
		}
	}
	return Partition{}, false
}

// WithPartitionConfig overrides the config name of the partition for
// category. Unknown categories are ignored.
func (p Profile) WithPartitionConfig(category models.Type, config string) Profile {
	parts := make([]Partition, len(p.Partitions))
	copy(parts, p.Partitions)
	for i := range parts {
		if parts[i].Category == category && config != "" {
			parts[i].Config = config
		}
	}
	p.Partitions = parts
	return p
}

// WithSplit overrides the split of every partition.
func (p Profile) WithSplit(split string) Profile {
	if split == "" {
		return p
	}
	parts := make([]Partition, len(p.Partitions))
	copy(parts, p.Partitions)
	for i := range parts {
		parts[i].Split = split
	}
	p.Partitions = parts
	return p
}

const (
	PROFILE_REDDIT_DATASET = "the-reddit-dataset"
	PROFILE_PUSHSHIFT      = "pushshift"
	PROFILE_REDDIT_API     = "reddit-api"

	// REDDIT_KIND_FIELD holds a listing child's kind (t1, t3).
	REDDIT_KIND_FIELD = "thing_kind"
)

func redditAPIFields() Fields {
	f := DefaultFields()
	f.Type = REDDIT_KIND_FIELD
	return f
}

var builtin = map[string]Profile{
	PROFILE_REDDIT_DATASET: {
		Name:    PROFILE_REDDIT_DATASET,
		Dataset: "SocialGrep/the-reddit-dataset-dataset",
		Partitions: []Partition{
			{Name: "comments", Config: "comments", Split: "train", Category: models.TypeComment},
			{Name: "posts", Config: "posts", Split: "train", Category: models.TypePost},
		},
		Router: classify.KindRouter{SelfDomain: "self.datasets"},
		Provenance: Provenance{
			Constant: true,
			ID:       "2r97t",
			Name:     "datasets",
		},
		Fields:    DefaultFields(),
		TypeCodes: classify.RedditCodes(),
	},
	PROFILE_PUSHSHIFT: {
		Name:    PROFILE_PUSHSHIFT,
		Dataset: "fddemarco/pushshift-reddit",
		Partitions: []Partition{
			{Name: "posts", Config: "default", Split: "train", Category: models.TypePost},
		},
		Router: classify.KindRouter{SelfPrefix: "self."},
		Provenance: Provenance{
			IDField:   "subreddit_id",
			NameField: "subreddit",
		},
		Fields:    DefaultFields(),
		TypeCodes: classify.RedditCodes(),
		ImplyType: true,
	},
	PROFILE_REDDIT_API: {
		Name:    PROFILE_REDDIT_API,
		Dataset: "r/datasets",
		Partitions: []Partition{
			{Name: "comments", Config: "comments", Category: models.TypeComment},
			{Name: "posts", Config: "new", Category: models.TypePost},
		},
		Router: classify.KindRouter{SelfPrefix: "self."},
		Provenance: Provenance{
			IDField:   "subreddit_id",
			NameField: "subreddit",
		},
		Fields:      redditAPIFields(),
		TypeCodes:   classify.RedditCodes(),
		TypeAliases: map[string]models.Type{"t1": models.TypeComment, "t3": models.TypePost},
	},
}

// Lookup returns a built-in profile by name.
func Lookup(name string) (Profile, error) {
	p, ok := builtin[name]
	if !ok {
		return Profile{}, fmt.Errorf("[Sources] unknown profile %q (known: %v)", name, Names())
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
