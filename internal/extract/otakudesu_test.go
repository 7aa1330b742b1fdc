package extract

import (
	"errors"
	"testing"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

const homeFixture = `
<html><body>
<div class="venz"><ul>
  <li>
    <div class="thumbz"><img src="https://img.example/op.jpg"></div>
    <h2 class="jdlflm">One Piece</h2>
    <div class="epz">Episode 1100</div>
    <div class="epztipe">Minggu</div>
    <div class="newnime">10 Agu</div>
    <a href="https://otakudesu.best/anime/one-piece-sub-indo/"></a>
  </li>
  <li>
    <h2 class="jdlflm">Naruto</h2>
    <div class="epz">Episode 220</div>
    <a href="https://otakudesu.best/anime/naruto-sub-indo/"></a>
  </li>
</ul></div>
</body></html>`

const genreFixture = `
<html><body>
<div id="venkonten"><div class="vezone"><ul class="genres">
  <li><a href="https://otakudesu.best/genres/action/">Action</a></li>
  <li><a href="https://otakudesu.best/genres/comedy/">Comedy</a></li>
</ul></div></div>
</body></html>`

const scheduleFixture = `
<html><body>
<div class="jadwal-konten">
  <h2>Senin</h2>
  <ul>
    <li><a href="https://otakudesu.best/anime/a-sub-indo/">Anime A</a></li>
    <li><a href="https://otakudesu.best/anime/b-sub-indo/">Anime B</a></li>
  </ul>
</div>
<div class="jadwal-konten">
  <h2>Selasa</h2>
  <ul><li><a href="https://otakudesu.best/anime/c-sub-indo/">Anime C</a></li></ul>
</div>
</body></html>`

const animeFixture = `
<html><body>
<div class="fotoanime"><img src="https://img.example/poster.jpg"></div>
<div class="infozin"><div class="infozingle">
  <p><span>Judul: Grand Blue</span></p>
  <p>Skor: 8.45</p>
  <p>Produser: Aniplex</p>
  <p>Tipe: TV</p>
  <p>Status: Completed</p>
  <a href="https://otakudesu.best/genres/comedy/">Comedy</a>
</div></div>
<div class="sinopc"><p>Diving club shenanigans.</p></div>
<div class="episodelist"><ul>
  <li><a href="https://otakudesu.best/batch/gb-batch/">Batch</a></li>
</ul></div>
<div class="episodelist"><ul>
  <li><a href="https://otakudesu.best/episode/gb-episode-1-sub-indo/">Episode 1</a></li>
  <li><a href="https://otakudesu.best/episode/gb-episode-2-sub-indo/">Episode 2</a></li>
</ul></div>
</body></html>`

const episodeFixture = `
<html><body>
<div class="venutama"><h1 class="posttl">Grand Blue Episode 1</h1></div>
<div class="flir">
  <a href="https://otakudesu.best/anime/grand-blue-sub-indo/">See All Episodes</a>
</div>
<div id="pembed"><iframe src="https://stream.example/embed/abc"></iframe></div>
<iframe src="https://stream.example/embed/mirror"></iframe>
<div class="download"><ul>
  <li><strong>720p</strong>
    <a href="https://dl.example/a">ZippyShare</a>
    <a href="https://dl.example/b">GoFile</a>
  </li>
</ul></div>
</body></html>`

func TestHome(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	items, err := ex.Home([]byte(homeFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first.Title != "One Piece" || first.Slug != "one-piece-sub-indo" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.Thumbnail != "https://img.example/op.jpg" {
		t.Errorf("unexpected thumbnail %q", first.Thumbnail)
	}
	if first.Day != "Minggu" || first.Date != "10 Agu" {
		t.Errorf("day/date not extracted: %+v", first)
	}
	if items[1].Thumbnail != "" {
		t.Errorf("missing thumbnail should stay empty, got %q", items[1].Thumbnail)
	}
}

func TestOngoingEmptyPage(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	items, err := ex.Ongoing([]byte(`<html><body><div class="venz"><ul></ul></div></body></html>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected zero items for empty page, got %d", len(items))
	}
}

func TestGenreList(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	genres, err := ex.GenreList([]byte(genreFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(genres) != 2 {
		t.Fatalf("expected 2 genres, got %d", len(genres))
	}
	if genres[0].Name != "Action" || genres[0].Slug != "action" {
		t.Errorf("unexpected genre: %+v", genres[0])
	}
}

func TestSchedule(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	days, err := ex.Schedule([]byte(scheduleFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Day != "Senin" || len(days[0].Items) != 2 {
		t.Errorf("unexpected first day: %+v", days[0])
	}
	if days[1].Items[0].Slug != "c-sub-indo" {
		t.Errorf("unexpected slug %q", days[1].Items[0].Slug)
	}
}

func TestAnimeDetail(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	detail, err := ex.AnimeDetail([]byte(animeFixture), "grand-blue-sub-indo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Title != "Grand Blue" {
		t.Errorf("title prefix not stripped: %q", detail.Title)
	}
	if detail.URL != "https://otakudesu.best/anime/grand-blue-sub-indo/" {
		t.Errorf("unexpected url %q", detail.URL)
	}
	if detail.Poster != "https://img.example/poster.jpg" {
		t.Errorf("unexpected poster %q", detail.Poster)
	}
	if detail.Synopsis != "Diving club shenanigans." {
		t.Errorf("unexpected synopsis %q", detail.Synopsis)
	}
	if detail.Info.Score != "8.45" || detail.Info.Producer != "Aniplex" || detail.Info.Type != "TV" || detail.Info.Status != "Completed" {
		t.Errorf("info block not extracted: %+v", detail.Info)
	}
	if len(detail.Genres) != 1 || detail.Genres[0] != "Comedy" {
		t.Errorf("unexpected genres %v", detail.Genres)
	}
	// The second episodelist block carries the real list.
	if len(detail.Episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d: %+v", len(detail.Episodes), detail.Episodes)
	}
	if detail.Episodes[0].Slug != "gb-episode-1-sub-indo" {
		t.Errorf("unexpected episode slug %q", detail.Episodes[0].Slug)
	}
}

func TestAnimeDetailUnparsable(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	_, err := ex.AnimeDetail([]byte("<html><body><p>404</p></body></html>"), "nope")
	if !errors.Is(err, ErrUnparsable) {
		t.Fatalf("expected ErrUnparsable, got %v", err)
	}
}

func TestEpisodeDetail(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best")
	detail, err := ex.EpisodeDetail([]byte(episodeFixture), "gb-episode-1-sub-indo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Title != "Grand Blue Episode 1" {
		t.Errorf("unexpected title %q", detail.Title)
	}
	if detail.EmbedURL != "https://stream.example/embed/abc" {
		t.Errorf("unexpected embed url %q", detail.EmbedURL)
	}
	if len(detail.Embeds) != 2 {
		t.Errorf("expected 2 embeds, got %v", detail.Embeds)
	}
	if detail.AnimeURL != "https://otakudesu.best/anime/grand-blue-sub-indo/" {
		t.Errorf("unexpected anime url %q", detail.AnimeURL)
	}

	var group *types.Download
	for i := range detail.Downloads {
		if detail.Downloads[i].Quality == "720p" {
			group = &detail.Downloads[i]
		}
	}
	if group == nil {
		t.Fatalf("expected a 720p download group, got %+v", detail.Downloads)
	}
	if len(group.Links) != 2 || group.Links[0].Host != "ZippyShare" {
		t.Errorf("unexpected group links %+v", group.Links)
	}
}

func TestURLFor(t *testing.T) {
	ex := NewOtakudesu("https://otakudesu.best/")
	tests := []struct {
		item types.WorkItem
		want string
	}{
		{types.WorkItem{Kind: types.KindHome, ID: "home"}, "https://otakudesu.best/"},
		{types.WorkItem{Kind: types.KindOngoing, ID: "p1"}, "https://otakudesu.best/ongoing-anime/"},
		{types.WorkItem{Kind: types.KindOngoing, ID: "p4"}, "https://otakudesu.best/ongoing-anime/page/4/"},
		{types.WorkItem{Kind: types.KindGenres, ID: "genrelist"}, "https://otakudesu.best/genre-list/"},
		{types.WorkItem{Kind: types.KindSchedule, ID: "jadwal"}, "https://otakudesu.best/jadwal-rilis/"},
		{types.WorkItem{Kind: types.KindAnime, ID: "one-piece"}, "https://otakudesu.best/anime/one-piece/"},
		{types.WorkItem{Kind: types.KindEpisode, ID: "op-1"}, "https://otakudesu.best/episode/op-1/"},
	}
	for _, tt := range tests {
		got, err := ex.URLFor(tt.item)
		if err != nil {
			t.Errorf("URLFor(%v): %v", tt.item, err)
			continue
		}
		if got != tt.want {
			t.Errorf("URLFor(%v) = %q, want %q", tt.item, got, tt.want)
		}
	}
}
