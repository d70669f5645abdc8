package gather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"

	"mallfinder/pkg/utils"
)

const (
	capitalandBase     = "https://www.capitaland.com"
	capitalandPageSize = 100
	navigateTimeout    = 30 * time.Second
)

// capitalandCategoryMap translates the site's marketing-category tag
// keys into our normalized category labels.
var capitalandCategoryMap = map[string]string{
	"fnb":                   "Food & Beverage",
	"beautyandwellness":     "Beauty & Wellness",
	"fashion":               "Fashion",
	"lifestyle":             "Lifestyle",
	"entertainment":         "Entertainment",
	"services":              "Services",
	"homeandliving":         "Home & Living",
	"sportsandleisure":      "Sports & Leisure",
	"jewelryandaccessories": "Jewelry & Accessories",
	"kidsandbabies":         "Kids & Babies",
	"educationandlearning":  "Education & Learning",
}

var (
	capitalandSlugRe = regexp.MustCompile(`/sg/malls/([^/]+)/en\.html`)
	pgCursorRe       = regexp.MustCompile(`/cl%3Apgcursor/\d+/\d+\.json$`)
	unitPrefixRe     = regexp.MustCompile(`(?i)^unit-`)
)

// CapitaLand scrapes capitaland.com mall directories. The mall index is
// server-rendered and fetched over plain HTTP, but the per-mall store
// directory is loaded client-side from a paginated tenant API, so
// Stores drives a headless browser and intercepts that API's first
// response, then pages through the rest with in-page fetches so the
// session cookies keep applying.
type CapitaLand struct {
	http *resty.Client
	cfg  utils.GatherConfig
	base string

	browserCtx  context.Context
	cancelFuncs []context.CancelFunc
}

func NewCapitaLand(client *resty.Client, cfg utils.GatherConfig) *CapitaLand {
	return &CapitaLand{http: client, cfg: cfg, base: capitalandBase}
}

func (c *CapitaLand) Name() string { return "capitaland" }

func (c *CapitaLand) Malls(ctx context.Context) ([]RawMall, error) {
	url := c.base + "/sg/en/shop/malls.html"
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrSourceUnavailable, url, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrSourceUnavailable, url, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: parse malls index: %v", ErrParse, err)
	}

	var malls []RawMall
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := capitalandSlugRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		slug := m[1]
		seen[slug] = true

		// prefer link text, then the nearest enclosing heading,
		// finally a humanized slug
		name := strings.TrimSpace(a.Text())
		if name == "" {
			a.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
				h := p.Find("h2, h3, h4").First()
				if h.Length() > 0 {
					name = strings.TrimSpace(h.Text())
					return false
				}
				return true
			})
		}
		if name == "" {
			name = humanizeSlug(slug)
		}

		malls = append(malls, RawMall{
			Name:    name,
			Slug:    slug,
			Website: c.base + "/sg/malls/" + slug + "/en.html",
		})
	})

	return malls, nil
}

// Start launches the headless browser reused for the rest of the run.
func (c *CapitaLand) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(c.cfg.UserAgent),
	)
	if c.cfg.ChromeBin != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// an empty Run starts the browser process, surfacing a missing
	// runtime here instead of on the first mall
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	c.browserCtx = browserCtx
	c.cancelFuncs = []context.CancelFunc{cancelBrowser, cancelAlloc}
	return nil
}

func (c *CapitaLand) Stop() {
	for _, cancel := range c.cancelFuncs {
		cancel()
	}
	c.browserCtx = nil
	c.cancelFuncs = nil
}

type capitalandTenantsPage struct {
	TotalCount int                `json:"totalcount"`
	Properties []capitalandTenant `json:"properties"`
}

type capitalandTenant struct {
	Title             string   `json:"jcr:title"`
	UnitNumber        []string `json:"unitnumber"`
	MarketingCategory []string `json:"marketingcategory"`
	BrandDetails      []struct {
		Title string `json:"jcr:title"`
	} `json:"_rel_brandtenants_details"`
}

type interceptedResponse struct {
	url  string
	body []byte
}

func (c *CapitaLand) Stores(ctx context.Context, mall RawMall) ([]RawStore, error) {
	if c.browserCtx == nil {
		return nil, ErrBrowserUnavailable
	}

	pageURL := c.base + "/sg/malls/" + mall.Slug + "/en/stores.html"

	// fresh tab per mall, shared browser session
	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, navigateTimeout+c.cfg.SettleWait)
	defer cancelTimeout()

	first := make(chan interceptedResponse, 1)
	listenForTenantsAPI(tabCtx, first)

	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		// fixed settle wait instead of network-idle: third-party
		// beacon scripts keep the network busy long after the tenant
		// API has answered
		chromedp.Sleep(c.cfg.SettleWait),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: navigate %s: %v", ErrSourceUnavailable, pageURL, err)
	}

	var captured interceptedResponse
	select {
	case captured = <-first:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("%w: no tenant API response for %q", ErrParse, mall.Slug)
	}

	var page capitalandTenantsPage
	if err := json.Unmarshal(captured.body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode tenant API for %q: %v", ErrParse, mall.Slug, err)
	}

	stores := parseCapitalandTenants(page)
	log.Printf("[capitaland] %s: totalcount=%d, first page=%d stores",
		mall.Slug, page.TotalCount, len(stores))

	// follow-up pages go through the page's own fetch so the session
	// cookies from the initial navigation keep applying
	base := pgCursorRe.ReplaceAllString(captured.url, "")
	if page.TotalCount > capitalandPageSize && base != captured.url {
		for start := capitalandPageSize + 1; start <= page.TotalCount; start += capitalandPageSize {
			cursorURL := fmt.Sprintf("%s/cl%%3Apgcursor/%d/%d.json", base, start, capitalandPageSize)

			var raw string
			err := chromedp.Run(tabCtx, chromedp.Evaluate(
				fmt.Sprintf(`fetch(%q, {credentials: "include"}).then(r => r.text())`, cursorURL),
				&raw,
				func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
					return p.WithAwaitPromise(true)
				},
			))
			if err != nil {
				log.Printf("[capitaland] %s: pagination failed at start=%d: %v", mall.Slug, start, err)
				break
			}

			var next capitalandTenantsPage
			if err := json.Unmarshal([]byte(raw), &next); err != nil {
				log.Printf("[capitaland] %s: bad page at start=%d: %v", mall.Slug, start, err)
				break
			}
			stores = append(stores, parseCapitalandTenants(next)...)
		}
	}

	return stores, nil
}

// listenForTenantsAPI watches the tab's network events and delivers the
// body of the first JSON response from the paginated tenant API.
func listenForTenantsAPI(tabCtx context.Context, out chan<- interceptedResponse) {
	var mu sync.Mutex
	pending := make(map[network.RequestID]string)
	done := false

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			url := ev.Response.URL
			if !strings.Contains(url, "api-v1") || !strings.Contains(url, "tenants") {
				return
			}
			if !strings.Contains(ev.Response.MimeType, "json") {
				return
			}
			mu.Lock()
			if !done {
				pending[ev.RequestID] = url
			}
			mu.Unlock()

		case *network.EventLoadingFinished:
			mu.Lock()
			url, ok := pending[ev.RequestID]
			if !ok || done {
				mu.Unlock()
				return
			}
			done = true
			mu.Unlock()

			// body is only retrievable once loading has finished
			requestID := ev.RequestID
			go func() {
				cc := chromedp.FromContext(tabCtx)
				body, err := network.GetResponseBody(requestID).
					Do(cdp.WithExecutor(tabCtx, cc.Target))
				if err != nil {
					return
				}
				select {
				case out <- interceptedResponse{url: url, body: body}:
				default:
				}
			}()
		}
	})
}

// parseCapitalandTenants maps one page of the tenant API into raw store
// records.
func parseCapitalandTenants(page capitalandTenantsPage) []RawStore {
	stores := make([]RawStore, 0, len(page.Properties))
	for _, t := range page.Properties {
		name := strings.TrimSpace(t.Title)
		if name == "" && len(t.BrandDetails) > 0 {
			name = strings.TrimSpace(t.BrandDetails[0].Title)
		}
		if name == "" {
			continue
		}

		stores = append(stores, RawStore{
			Name:     name,
			Category: capitalandCategory(t.MarketingCategory),
			Unit:     capitalandUnit(t.UnitNumber),
		})
	}
	return stores
}

// capitalandUnit converts a tag path like ".../unit-03-k1" to "#03-K1".
func capitalandUnit(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := strings.Split(tags[0], "/")
	segment := parts[len(parts)-1]
	segment = unitPrefixRe.ReplaceAllString(segment, "")
	if segment == "" {
		return ""
	}
	return "#" + strings.ToUpper(segment)
}

// capitalandCategory resolves a marketing-category tag path to a
// normalized label. Unknown keys pass through as a readable title-cased
// label instead of failing.
func capitalandCategory(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := strings.Split(tags[0], "/")
	rawKey := parts[0]
	if len(parts) >= 2 {
		rawKey = parts[len(parts)-2]
	}
	if rawKey == "" {
		return "Other"
	}

	key := strings.ToLower(rawKey)
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	if label, ok := capitalandCategoryMap[key]; ok {
		return label
	}
	return humanizeSlug(rawKey)
}

// humanizeSlug turns "bugis-junction" into "Bugis Junction".
func humanizeSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
