package archive

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// SortSources orders sibling sources by name, ignoring case. Names that
// fold to the same key keep their relative order.
func SortSources(sources []*model.LogSource) {
	fold := cases.Fold()
	keys := make(map[*model.LogSource]string, len(sources))
	for _, s := range sources {
		keys[s] = fold.String(s.Name)
	}
	slices.SortStableFunc(sources, func(a, b *model.LogSource) int {
		return strings.Compare(keys[a], keys[b])
	})
}
