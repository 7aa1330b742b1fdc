package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// Otakudesu extracts records from otakudesu pages and builds their URLs.
// Each field is resolved through an ordered chain of selectors because the
// site's mirrors ship slightly different markup; the first match wins.
type Otakudesu struct {
	base string
}

// NewOtakudesu creates an extractor for the given base URL (no trailing
// slash required).
func NewOtakudesu(baseURL string) *Otakudesu {
	return &Otakudesu{base: strings.TrimRight(baseURL, "/")}
}

// URLFor builds the canonical URL for a work item.
func (o *Otakudesu) URLFor(item types.WorkItem) (string, error) {
	switch item.Kind {
	case types.KindHome:
		return o.base + "/", nil
	case types.KindOngoing:
		page := strings.TrimPrefix(item.ID, "p")
		if page == "1" {
			return o.base + "/ongoing-anime/", nil
		}
		return fmt.Sprintf("%s/ongoing-anime/page/%s/", o.base, page), nil
	case types.KindGenres:
		return o.base + "/genre-list/", nil
	case types.KindSchedule:
		return o.base + "/jadwal-rilis/", nil
	case types.KindAnime:
		return fmt.Sprintf("%s/anime/%s/", o.base, item.ID), nil
	case types.KindEpisode:
		return fmt.Sprintf("%s/episode/%s/", o.base, item.ID), nil
	}
	return "", fmt.Errorf("no URL for kind %q", item.Kind)
}

// Home extracts the ongoing block of the front page.
func (o *Otakudesu) Home(body []byte) ([]types.ListItem, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	items := make([]types.ListItem, 0, 16)
	doc.Find("div.venz ul li").Each(func(_ int, li *goquery.Selection) {
		item := listItemFrom(li)
		item.Day = text(li, "div.epztipe")
		item.Date = text(li, "div.newnime")
		items = append(items, item)
	})
	return items, nil
}

// Ongoing extracts one page of the paginated ongoing listing. Zero items is
// a valid result and terminates pagination at the caller.
func (o *Otakudesu) Ongoing(body []byte) ([]types.ListItem, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	items := make([]types.ListItem, 0, 16)
	doc.Find("div.venz ul li").Each(func(_ int, li *goquery.Selection) {
		items = append(items, listItemFrom(li))
	})
	return items, nil
}

// GenreList extracts the genre index.
func (o *Otakudesu) GenreList(body []byte) ([]types.Genre, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	genres := make([]types.Genre, 0, 32)
	seen := map[string]struct{}{}
	for _, sel := range []string{"#venkonten .vezone ul.genres li a", "div.genres li a", ".genres li a"} {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			name := strings.TrimSpace(a.Text())
			if name == "" || href == "" {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			genres = append(genres, types.Genre{
				Name: name,
				Link: href,
				Slug: types.SlugFromURL(href),
			})
		})
		if len(genres) > 0 {
			break
		}
	}
	return genres, nil
}

// Schedule extracts the weekly release schedule, keeping day order.
func (o *Otakudesu) Schedule(body []byte) ([]types.ScheduleDay, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	days := make([]types.ScheduleDay, 0, 7)
	doc.Find("div.jadwal-konten").Each(func(_ int, box *goquery.Selection) {
		day := strings.TrimSpace(box.Find("h2").First().Text())
		if day == "" {
			day = "unknown"
		}
		entries := make([]types.ScheduleEntry, 0, 8)
		box.Find("ul li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			entries = append(entries, types.ScheduleEntry{
				Title: strings.TrimSpace(a.Text()),
				Link:  href,
				Slug:  types.SlugFromURL(href),
			})
		})
		days = append(days, types.ScheduleDay{Day: day, Items: entries})
	})
	return days, nil
}

// AnimeDetail extracts one anime detail page including its episode list.
func (o *Otakudesu) AnimeDetail(body []byte, slug string) (*types.AnimeDetail, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	detail := &types.AnimeDetail{
		Slug:   slug,
		Genres: []string{},
	}
	if url, err := o.URLFor(types.WorkItem{Kind: types.KindAnime, ID: slug}); err == nil {
		detail.URL = url
	}

	title := firstText(doc,
		".infozin .infozingle p:first-child span",
		".jdlrx h1",
		"h1",
		".post-title",
	)
	detail.Title = strings.TrimSpace(strings.TrimPrefix(title, "Judul: "))

	detail.Synopsis = firstText(doc,
		".sinopc p",
		".sinopc",
		".sinopsis",
		"#venkonten .sinopsis",
		".entry-content .sinopsis",
	)

	detail.Poster = firstAttr(doc, "src",
		".detpost .thumb .thumbz img",
		".fotoanime img",
		".post img",
	)
	if detail.Poster == "" {
		detail.Poster = firstAttr(doc, "content", "meta[property='og:image']")
	}

	for _, sel := range []string{"#venkonten .vezone ul.genres li a", ".infozingle a[href*='genres']", ".genre-info a", ".genres a"} {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			if g := strings.TrimSpace(a.Text()); g != "" {
				detail.Genres = append(detail.Genres, g)
			}
		})
		if len(detail.Genres) > 0 {
			break
		}
	}

	detail.Info = extractInfo(doc)
	detail.Episodes = extractEpisodes(doc)

	if detail.Title == "" && len(detail.Episodes) == 0 && detail.Synopsis == "" {
		return nil, fmt.Errorf("anime detail %s: %w", slug, ErrUnparsable)
	}
	return detail, nil
}

// EpisodeDetail extracts one episode page: player embeds, downloads, and the
// back-link to its anime.
func (o *Otakudesu) EpisodeDetail(body []byte, slug string) (*types.EpisodeDetail, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	detail := &types.EpisodeDetail{
		Slug:      slug,
		Embeds:    []string{},
		Downloads: []types.Download{},
	}
	if url, err := o.URLFor(types.WorkItem{Kind: types.KindEpisode, ID: slug}); err == nil {
		detail.URL = url
	}

	detail.Title = firstText(doc, ".venutama .posttl", "h1", ".post-title")

	detail.EmbedURL = firstAttr(doc, "src", "#pembed iframe", ".player iframe", "iframe[src]")
	doc.Find("iframe[src]").Each(func(_ int, f *goquery.Selection) {
		if src, ok := f.Attr("src"); ok && src != "" {
			detail.Embeds = append(detail.Embeds, src)
		}
	})

	// Flat host anchors first, then quality groups with mirror lists.
	doc.Find(".download, .dlbutton, .downloadlinks").Each(func(_ int, container *goquery.Selection) {
		container.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			detail.Downloads = append(detail.Downloads, types.Download{
				Host: strings.TrimSpace(a.Text()),
				Link: href,
			})
		})
	})
	doc.Find(".download ul li, .dowload-servers li").Each(func(_ int, li *goquery.Selection) {
		quality := strings.TrimSpace(li.Find("strong").First().Text())
		links := make([]types.DownloadLink, 0, 4)
		li.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			links = append(links, types.DownloadLink{
				Host: strings.TrimSpace(a.Text()),
				Link: href,
			})
		})
		if len(links) > 0 {
			detail.Downloads = append(detail.Downloads, types.Download{Quality: quality, Links: links})
		}
	})

	detail.AnimeURL = firstAttr(doc, "href", ".flir a[href]")

	if detail.Title == "" && detail.EmbedURL == "" && len(detail.Downloads) == 0 {
		return nil, fmt.Errorf("episode detail %s: %w", slug, ErrUnparsable)
	}
	return detail, nil
}

func parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return doc, nil
}

func listItemFrom(li *goquery.Selection) types.ListItem {
	a := li.Find("a").First()
	href, _ := a.Attr("href")
	item := types.ListItem{
		Title:         text(li, "h2.jdlflm"),
		Link:          href,
		Slug:          types.SlugFromURL(href),
		LatestEpisode: text(li, "div.epz"),
	}
	if img := li.Find("div.thumbz img").First(); img.Length() > 0 {
		item.Thumbnail, _ = img.Attr("src")
	}
	return item
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// firstText walks the selector chain and returns the first non-empty text.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

// firstAttr walks the selector chain and returns the first non-empty value of
// the given attribute.
func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func extractInfo(doc *goquery.Document) types.AnimeInfo {
	var info types.AnimeInfo
	doc.Find(".infozin .infozingle p").Each(func(_ int, p *goquery.Selection) {
		txt := strings.TrimSpace(p.Text())
		switch {
		case strings.Contains(txt, "Skor"):
			info.Score = infoValue(txt, "Skor")
		case strings.Contains(txt, "Produser"):
			info.Producer = infoValue(txt, "Produser")
		case strings.Contains(txt, "Tipe"), strings.Contains(txt, "Type"):
			key := "Tipe"
			if !strings.Contains(txt, "Tipe") {
				key = "Type"
			}
			info.Type = infoValue(txt, key)
		case strings.Contains(txt, "Status"):
			info.Status = infoValue(txt, "Status")
		}
	})
	return info
}

func infoValue(txt, key string) string {
	if i := strings.Index(txt, key); i >= 0 {
		txt = txt[i+len(key):]
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(txt), ":"))
}

func extractEpisodes(doc *goquery.Document) []types.EpisodeRef {
	episodes := make([]types.EpisodeRef, 0, 16)

	// Mirrors commonly render two .episodelist blocks; the second is the
	// full list, so prefer it when present.
	lists := doc.Find(".episodelist")
	var chosen *goquery.Selection
	switch {
	case lists.Length() >= 2:
		chosen = lists.Eq(1)
	case lists.Length() == 1:
		chosen = lists.Eq(0)
	}
	if chosen != nil {
		chosen.Find("li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			episodes = append(episodes, types.EpisodeRef{
				Title: strings.TrimSpace(a.Text()),
				Link:  href,
				Slug:  types.SlugFromURL(href),
			})
		})
	}

	if len(episodes) == 0 {
		doc.Find("a[href*='/episode/']").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			episodes = append(episodes, types.EpisodeRef{
				Title: strings.TrimSpace(a.Text()),
				Link:  href,
				Slug:  types.SlugFromURL(href),
			})
		})
	}
	return episodes
}
