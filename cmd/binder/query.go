package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/binder/pkg/catalog"
)

// queryFlags are the filter and sort flags shared by list and browse.
type queryFlags struct {
	search   string
	types    []string
	rarities []string
	set      string
	sort     string
	desc     bool
}

func (q *queryFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&q.search, "search", "q", "", "Match name, number, set or artist")
	f.StringSliceVar(&q.types, "type", nil, "Only cards of these energy types")
	f.StringSliceVar(&q.rarities, "rarity", nil, "Only cards of these rarities")
	f.StringVar(&q.set, "set", "", "Only cards of this set")
	f.StringVar(&q.sort, "sort", "", "Sort by name, number, rarity, hp or released (default from binder.yaml)")
	f.BoolVar(&q.desc, "desc", false, "Reverse the sort order")
}

// query builds the catalog query. fallback is the configured sort key.
func (q *queryFlags) query(fallback string) (catalog.Query, error) {
	sort := q.sort
	if sort == "" {
		sort = fallback
	}
	key, err := catalog.ParseSortKey(sort)
	if err != nil {
		return catalog.Query{}, err
	}
	return catalog.Query{
		Search:   q.search,
		Types:    q.types,
		Rarities: q.rarities,
		Set:      q.set,
		Sort:     key,
		Desc:     q.desc,
	}, nil
}
