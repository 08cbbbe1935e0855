package characters

import (
	"maps"
	"slices"
	"strings"
)

// DefaultTheme is the theme used when none is configured.
const DefaultTheme = "disney"

var disney = []string{
	"Aladdin",
	"Ariel",
	"Aurora",
	"Baloo",
	"Bambi",
	"Belle",
	"Buzz Lightyear",
	"Cinderella",
	"Cruella de Vil",
	"Donald Duck",
	"Dumbo",
	"Elsa",
	"Gaston",
	"Genie",
	"Goofy",
	"Hercules",
	"Jafar",
	"Jasmine",
	"Lilo",
	"Maleficent",
	"Merida",
	"Mickey Mouse",
	"Minnie Mouse",
	"Moana",
	"Mufasa",
	"Mulan",
	"Olaf",
	"Peter Pan",
	"Pinocchio",
	"Pocahontas",
	"Rapunzel",
	"Scar",
	"Sebastian",
	"Simba",
	"Snow White",
	"Stitch",
	"Tiana",
	"Tinker Bell",
	"Ursula",
	"Winnie the Pooh",
	"Woody",
}

var pixar = []string{
	"Anger",
	"Boo",
	"Buzz Lightyear",
	"Carl Fredricksen",
	"Dash",
	"Dory",
	"Dug",
	"Edna Mode",
	"Elastigirl",
	"Ember",
	"EVE",
	"Flik",
	"Frozone",
	"Hector",
	"Jessie",
	"Joy",
	"Lightning McQueen",
	"Luca",
	"Marlin",
	"Mater",
	"Mei Lee",
	"Miguel",
	"Mike Wazowski",
	"Mr. Incredible",
	"Nemo",
	"Remy",
	"Russell",
	"Sadness",
	"Sulley",
	"Violet",
	"WALL-E",
	"Woody",
}

var catalogs = map[string][]string{
	"disney": disney,
	"pixar":  pixar,
}

// Disney returns a copy of the built-in Disney catalog.
func Disney() []string {
	return slices.Clone(disney)
}

// Catalog returns a copy of the catalog for theme, matched case-insensitively.
func Catalog(theme string) ([]string, bool) {
	c, ok := catalogs[strings.ToLower(strings.TrimSpace(theme))]
	if !ok {
		return nil, false
	}
	return slices.Clone(c), true
}

// Themes lists the themes that have a catalog, sorted.
func Themes() []string {
	return slices.Sorted(maps.Keys(catalogs))
}
