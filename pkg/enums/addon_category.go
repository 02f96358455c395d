package enums

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// AddonCategory is the fixed taxonomy addons are filed under.
type AddonCategory string

const (
	AddonCategoryWeapons   AddonCategory = "weapons"
	AddonCategoryMobs      AddonCategory = "mobs"
	AddonCategoryMaps      AddonCategory = "maps"
	AddonCategoryTextures  AddonCategory = "textures"
	AddonCategoryTools     AddonCategory = "tools"
	AddonCategoryBlocks    AddonCategory = "blocks"
	AddonCategoryItems     AddonCategory = "items"
	AddonCategoryVehicles  AddonCategory = "vehicles"
	AddonCategoryFurniture AddonCategory = "furniture"
	AddonCategoryOther     AddonCategory = "other"
)

// AddonCategoryAll is the list filter sentinel meaning "no category filter".
const AddonCategoryAll = "all"

var validAddonCategories = []AddonCategory{
	AddonCategoryWeapons,
	AddonCategoryMobs,
	AddonCategoryMaps,
	AddonCategoryTextures,
	AddonCategoryTools,
	AddonCategoryBlocks,
	AddonCategoryItems,
	AddonCategoryVehicles,
	AddonCategoryFurniture,
	AddonCategoryOther,
}

// AddonCategories returns the known categories in display order.
func AddonCategories() []AddonCategory {
	return append([]AddonCategory(nil), validAddonCategories...)
}

// String implements fmt.Stringer.
func (c AddonCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known AddonCategory.
func (c AddonCategory) IsValid() bool {
	return lo.Contains(validAddonCategories, c)
}

// ParseAddonCategory converts raw input into an AddonCategory.
func ParseAddonCategory(value string) (AddonCategory, error) {
	candidate := AddonCategory(strings.TrimSpace(value))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid addon category %q", value)
}
