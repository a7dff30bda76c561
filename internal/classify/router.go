package classify

import (
	"strings"

	"github.com/spacesedan/redditcanon/internal/models"
)

// KindRouter splits posts into self posts and link posts by domain.
type KindRouter struct {
	// SelfDomain is matched exactly, e.g. "self.datasets".
	SelfDomain string
	// SelfPrefix is matched as a prefix when set, e.g. "self.".
	SelfPrefix string
}

func (r KindRouter) Route(domain string) models.Kind {
	if r.SelfDomain != "" && domain == r.SelfDomain {
		return models.KindPostInternal
	}
	if r.SelfPrefix != "" && strings.HasPrefix(domain, r.SelfPrefix) {
		return models.KindPostInternal
	}
	return models.KindPostExternal
}
