package types

// ListItem is one entry of a listing page (home or ongoing). Fields beyond
// title/link/slug are filled when the page exposes them.
type ListItem struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Slug          string `json:"slug"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	LatestEpisode string `json:"latest_episode,omitempty"`
	Day           string `json:"day,omitempty"`
	Date          string `json:"date,omitempty"`
}

// Genre is one entry of the genre index.
type Genre struct {
	Name string `json:"name"`
	Link string `json:"link"`
	Slug string `json:"slug"`
}

// ScheduleEntry is one title in the weekly release schedule.
type ScheduleEntry struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Slug  string `json:"slug"`
}

// ScheduleDay groups the schedule entries of one weekday. A slice keeps the
// day order the page presents.
type ScheduleDay struct {
	Day   string          `json:"day"`
	Items []ScheduleEntry `json:"items"`
}

// AnimeInfo holds the optional metadata block of a detail page.
type AnimeInfo struct {
	Score    string `json:"score,omitempty"`
	Producer string `json:"producer,omitempty"`
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
}

// EpisodeRef points at one episode from an anime detail page.
type EpisodeRef struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Slug  string `json:"slug"`
}

// AnimeDetail is the parsed record of one anime detail page.
type AnimeDetail struct {
	Title    string       `json:"title"`
	Slug     string       `json:"slug"`
	URL      string       `json:"url"`
	Poster   string       `json:"poster,omitempty"`
	Synopsis string       `json:"synopsis,omitempty"`
	Genres   []string     `json:"genres"`
	Info     AnimeInfo    `json:"info"`
	Episodes []EpisodeRef `json:"episodes"`
}

// DownloadLink is one mirror link inside a download group.
type DownloadLink struct {
	Host string `json:"host"`
	Link string `json:"link"`
}

// Download is one download entry of an episode page. Pages expose both flat
// host/link anchors and quality groups with multiple mirrors, so all fields
// are optional.
type Download struct {
	Host    string         `json:"host,omitempty"`
	Link    string         `json:"link,omitempty"`
	Quality string         `json:"quality,omitempty"`
	Links   []DownloadLink `json:"links,omitempty"`
}

// EpisodeDetail is the parsed record of one episode detail page.
type EpisodeDetail struct {
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	URL       string     `json:"url"`
	EmbedURL  string     `json:"embed_url,omitempty"`
	Embeds    []string   `json:"embeds"`
	Downloads []Download `json:"downloads"`
	AnimeURL  string     `json:"anime_url,omitempty"`
}
