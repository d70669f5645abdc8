package gather

import (
	"regexp"

	"github.com/antzucaro/matchr"
)

// regionSimilarityFloor: minimum JaroWinkler score for treating a wiki
// mall name and a directory mall name as the same mall. Below this the
// postal-code heuristic takes over instead.
const regionSimilarityFloor = 0.93

// RegionLookup maps normalized mall names to regions, built from the
// wiki table.
type RegionLookup struct {
	byKey map[string]string
}

func NewRegionLookup(byName map[string]string) *RegionLookup {
	byKey := make(map[string]string, len(byName))
	for name, region := range byName {
		byKey[Normalize(name)] = region
	}
	return &RegionLookup{byKey: byKey}
}

func (l *RegionLookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.byKey)
}

// Region resolves a mall name to a region. Exact normalized lookup
// first; if that misses, the closest wiki entry by JaroWinkler wins,
// provided it clears regionSimilarityFloor. Spellings drift between the
// wiki and the directory sites ("NEX" vs "Nex Mall"), exact keys alone
// miss those.
func (l *RegionLookup) Region(mallName string) string {
	if l == nil || len(l.byKey) == 0 {
		return ""
	}

	key := Normalize(mallName)
	if region, ok := l.byKey[key]; ok {
		return region
	}

	var bestScore float64
	var bestRegion string
	for candidate, region := range l.byKey {
		score := matchr.JaroWinkler(key, candidate, false)
		if score > bestScore {
			bestScore = score
			bestRegion = region
		}
	}
	if bestScore >= regionSimilarityFloor {
		return bestRegion
	}
	return ""
}

// postalPrefixRegion maps the first two digits of a Singapore postal
// code to a region, for malls the wiki table doesn't list.
var postalPrefixRegion = map[string]string{
	"01": "Central", "02": "Central", "03": "Central", "04": "Central",
	"05": "Central", "06": "Central", "07": "Central", "08": "Central",
	"09": "Central", "10": "Central", "11": "Central", "12": "Central",
	"13": "Central", "14": "Central", "15": "Central", "16": "East",
	"17": "Central", "18": "East", "19": "East", "20": "Central",
	"21": "Central", "22": "Central", "23": "Central", "24": "West",
	"25": "West", "26": "West", "27": "West", "28": "North",
	"29": "North", "30": "North", "31": "North", "32": "North",
	"33": "North", "34": "North", "35": "North", "36": "North",
	"37": "North", "38": "North", "39": "North", "40": "North",
	"41": "North", "42": "East", "43": "East", "44": "East",
	"45": "East", "46": "East", "47": "East", "48": "East",
	"49": "West", "50": "Central", "51": "Central", "52": "Central",
	"53": "North-East", "54": "North-East", "55": "North-East",
	"56": "North-East", "57": "North-East", "58": "West", "59": "West",
	"60": "West", "61": "West", "62": "West", "63": "West", "64": "West",
	"65": "West", "66": "West", "67": "West", "68": "West", "69": "West",
	"70": "South", "71": "South", "72": "East", "73": "East",
	"75": "East", "76": "East", "77": "East", "78": "East",
	"79": "North-East", "80": "North-East", "81": "East",
	"82": "North-East", "83": "Central", "84": "Central",
}

var postalCodeRe = regexp.MustCompile(`(?:Singapore\s+)?(\d{6})`)

// InferRegionFromAddress extracts a six-digit Singapore postal code from
// an address and maps its prefix to a region. Returns "" when the
// address has no postal code or the prefix is unknown.
func InferRegionFromAddress(address string) string {
	if address == "" {
		return ""
	}
	m := postalCodeRe.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	return postalPrefixRegion[m[1][:2]]
}

// ResolveRegion applies the region priority order: wiki lookup, then
// postal-code inference from the address.
func ResolveRegion(lookup *RegionLookup, mallName, address string) string {
	if region := lookup.Region(mallName); region != "" {
		return region
	}
	return InferRegionFromAddress(address)
}
