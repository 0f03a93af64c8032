package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/relevance"
	"github.com/DeafMist/club-pulse/internal/sources"
)

// Scoped splits a target list by scope.
type Scoped struct {
	Club    []string `yaml:"club"`
	General []string `yaml:"general"`
}

// Catalog lists what to fetch and how to label it. Sections left out of the
// file keep their built-in defaults.
type Catalog struct {
	Subreddits Scoped         `yaml:"subreddits"`
	Feeds      Scoped         `yaml:"feeds"`
	Keywords   []string       `yaml:"keywords"`
	Sources    []sources.Rule `yaml:"sources"`
}

// DefaultCatalog returns the built-in target lists.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Subreddits: Scoped{
			Club:    []string{"ManchesterUnited", "RedDevils"},
			General: []string{"soccer", "PremierLeague", "football"},
		},
		Feeds: Scoped{
			Club: []string{
				"https://www.manutd.com/Feeds/NewsSecondRSSFeed",
				"https://thepeoplesperson.com/feed/",
				"https://therepublikofmancunia.com/feed/",
				"https://strettynews.com/feed/",
				"https://manutdnews.com/feed/",
			},
			General: []string{
				"https://www.bbc.co.uk/sport/football/rss.xml",
				"https://www.101greatgoals.com/feed/",
				"https://www.espn.com/espn/rss/news",
				"https://www.theguardian.com/football/manchester-united/rss",
				"https://www.dailymail.co.uk/sport/manchester-united/articles.rss",
				"https://www.fourfourtwo.com/feeds.xml",
				"https://talksport.com/feed/",
				"https://www.skysports.com/rss/12040",
				"https://www.caughtoffside.com/tags/premier-league/feed/",
				"https://www.soccernews.com/category/english-premier-league/feed/",
				"https://feeds.bleacherreport.com/articles",
				"https://www.football365.com/manchester-united/rss2",
				"https://www.manchestereveningnews.co.uk/all-about/manchester-united-fc?service=rss",
				"https://www.si.com/feed",
				"https://www.footballfancast.com/feed",
				"https://metro.co.uk/tag/premier-league/feed",
				"https://football-talk.co.uk/topics/premier-league/feed",
				"https://e00-marca.uecdn.es/rss/en/football/premier-league.xml",
				"https://givemesport.com/premier-league/feed",
				"https://www.standard.co.uk/sport/rss",
				"https://www.independent.co.uk/sport/rss",
				"https://www.telegraph.co.uk/sport/rss.xml",
				"https://www.mirror.co.uk/sport/rss.xml",
				"https://news.google.com/rss/search?q=Manchester+United",
			},
		},
		Keywords: append([]string(nil), relevance.DefaultKeywords...),
		Sources:  append([]sources.Rule(nil), sources.DefaultRules...),
	}
}

// LoadCatalog reads a YAML catalog. An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	def := DefaultCatalog()
	if path == "" {
		return def, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if c.Subreddits.Club == nil {
		c.Subreddits.Club = def.Subreddits.Club
	}
	if c.Subreddits.General == nil {
		c.Subreddits.General = def.Subreddits.General
	}
	if c.Feeds.Club == nil {
		c.Feeds.Club = def.Feeds.Club
	}
	if c.Feeds.General == nil {
		c.Feeds.General = def.Feeds.General
	}
	if c.Keywords == nil {
		c.Keywords = def.Keywords
	}
	if c.Sources == nil {
		c.Sources = def.Sources
	}

	return &c, nil
}

// Targets returns the fetch targets of each batch key.
func (c *Catalog) Targets() map[models.BatchKey][]string {
	return map[models.BatchKey][]string{
		models.ClubSubreddits:    cleanList(c.Subreddits.Club),
		models.GeneralSubreddits: cleanList(c.Subreddits.General),
		models.ClubNews:          cleanList(c.Feeds.Club),
		models.GeneralNews:       cleanList(c.Feeds.General),
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
