package gather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const singmallsBase = "https://singmalls.app"

// SingMalls scrapes singmalls.app, a Next.js site that server-renders
// its full directory data into a __NEXT_DATA__ script tag. No browser
// needed, plain GETs are enough.
type SingMalls struct {
	http *resty.Client
	base string
}

func NewSingMalls(client *resty.Client) *SingMalls {
	return &SingMalls{http: client, base: singmallsBase}
}

func (s *SingMalls) Name() string { return "singmalls" }

type nextData struct {
	Props struct {
		PageProps struct {
			Sites     []singmallsSite     `json:"sites"`
			Merchants []singmallsMerchant `json:"merchants"`
		} `json:"pageProps"`
	} `json:"props"`
}

type singmallsSite struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formattedAddress"`
	Address          string `json:"address"`
}

type singmallsMerchant struct {
	Name                string `json:"name"`
	FormattedCategories string `json:"formattedCategories"`
	Category            string `json:"category"`
	FormattedLots       string `json:"formattedLots"`
	Unit                string `json:"unit"`
}

func (s *SingMalls) Malls(ctx context.Context) ([]RawMall, error) {
	data, err := s.fetchNextData(ctx, s.base+"/en/malls")
	if err != nil {
		return nil, err
	}

	sites := data.Props.PageProps.Sites
	if sites == nil {
		return nil, fmt.Errorf("%w: no sites in __NEXT_DATA__ on mall list", ErrParse)
	}

	malls := make([]RawMall, 0, len(sites))
	for _, site := range sites {
		name := strings.TrimSpace(site.Name)
		slug := strings.TrimSpace(site.ID)
		if slug == "" {
			slug = strings.TrimSpace(site.Slug)
		}
		if name == "" || slug == "" {
			continue
		}
		address := strings.TrimSpace(site.FormattedAddress)
		if address == "" {
			address = strings.TrimSpace(site.Address)
		}
		malls = append(malls, RawMall{
			Name:    name,
			Slug:    slug,
			Address: address,
			Website: s.base + "/en/malls/" + slug,
		})
	}
	return malls, nil
}

func (s *SingMalls) Stores(ctx context.Context, mall RawMall) ([]RawStore, error) {
	data, err := s.fetchNextData(ctx, s.base+"/en/malls/"+mall.Slug+"/directory")
	if err != nil {
		return nil, err
	}

	merchants := data.Props.PageProps.Merchants
	if merchants == nil {
		return nil, fmt.Errorf("%w: no merchants in __NEXT_DATA__ for %q", ErrParse, mall.Slug)
	}

	stores := make([]RawStore, 0, len(merchants))
	for _, m := range merchants {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		category := strings.TrimSpace(m.FormattedCategories)
		if category == "" {
			category = strings.TrimSpace(m.Category)
		}
		unit := strings.TrimSpace(m.FormattedLots)
		if unit == "" {
			unit = strings.TrimSpace(m.Unit)
		}
		stores = append(stores, RawStore{Name: name, Category: category, Unit: unit})
	}
	return stores, nil
}

func (s *SingMalls) fetchNextData(ctx context.Context, url string) (*nextData, error) {
	res, err := s.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrSourceUnavailable, url, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrSourceUnavailable, url, res.StatusCode())
	}
	return extractNextData(res.Body())
}

// extractNextData pulls the JSON payload out of the script#__NEXT_DATA__
// tag of a server-rendered Next.js page.
func extractNextData(html []byte) (*nextData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrParse, err)
	}

	raw := doc.Find("script#__NEXT_DATA__").Text()
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: no __NEXT_DATA__ script tag", ErrParse)
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: decode __NEXT_DATA__: %v", ErrParse, err)
	}
	return &data, nil
}
