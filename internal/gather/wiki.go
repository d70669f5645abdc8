package gather

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const wikiMallsURL = "https://en.wikipedia.org/wiki/List_of_shopping_malls_in_Singapore"

// wikiRegionSections: heading id on the wiki page -> region label we store.
var wikiRegionSections = [][2]string{
	{"Central", "Central"},
	{"East", "East"},
	{"North", "North"},
	{"North-East", "North-East"},
	{"West", "West"},
}

// FetchRegionLookup scrapes the "List of shopping malls in Singapore"
// wiki page. Each region is an <h2 id="Region"> heading followed by a
// <div class="div-col"> of <li> mall names. The result is a side lookup
// consumed while upserting malls, not a record source of its own.
func FetchRegionLookup(ctx context.Context, client *resty.Client) (*RegionLookup, error) {
	return fetchRegionLookup(ctx, client, wikiMallsURL)
}

func fetchRegionLookup(ctx context.Context, client *resty.Client, url string) (*RegionLookup, error) {
	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrSourceUnavailable, url, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrSourceUnavailable, url, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: parse wiki page: %v", ErrParse, err)
	}

	byKey := make(map[string]string)
	for _, section := range wikiRegionSections {
		id, label := section[0], section[1]

		heading := doc.Find("h2#" + id)
		if heading.Length() == 0 {
			continue
		}

		// the mall list is the nearest div.div-col after the heading's
		// wrapper, either a direct sibling or nested one level down
		col := heading.Parent().NextAllFiltered("div.div-col").First()
		if col.Length() == 0 {
			col = heading.Parent().NextAll().Find("div.div-col").First()
		}

		col.Find("li").Each(func(_ int, li *goquery.Selection) {
			name := strings.TrimSpace(li.Text())
			if name != "" {
				byKey[Normalize(name)] = label
			}
		})
	}

	if len(byKey) == 0 {
		return nil, fmt.Errorf("%w: no region sections found on wiki page", ErrParse)
	}
	return &RegionLookup{byKey: byKey}, nil
}
