package enums

import "strings"

// AddonSort selects the single-column ordering of an addon listing.
type AddonSort string

const (
	AddonSortNewest    AddonSort = "newest"
	AddonSortPopular   AddonSort = "popular"
	AddonSortDownloads AddonSort = "downloads"
)

// ParseAddonSort never fails: unknown or empty input falls back to newest.
func ParseAddonSort(value string) AddonSort {
	switch AddonSort(strings.ToLower(strings.TrimSpace(value))) {
	case AddonSortPopular:
		return AddonSortPopular
	case AddonSortDownloads:
		return AddonSortDownloads
	default:
		return AddonSortNewest
	}
}

// Column returns the addons column the sort orders by, descending.
func (s AddonSort) Column() string {
	switch s {
	case AddonSortPopular:
		return "views"
	case AddonSortDownloads:
		return "downloads"
	default:
		return "created_at"
	}
}
