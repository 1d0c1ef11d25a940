package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

type rssNewsRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	feedParser     *gofeed.Parser
	requestLimiter *rate.Limiter
}

// NewRSSNewsRepository creates a NewsProvider that reads a per-symbol RSS
// feed. When fetch_content is enabled it follows each item's link and
// extracts the article body with readability.
func NewRSSNewsRepository(cfg *config.Config, log *logger.Logger) NewsProvider {
	secondsPerRequest := time.Minute / time.Duration(cfg.RSS.MaxRequestPerMinute)
	return &rssNewsRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		feedParser:     gofeed.NewParser(),
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *rssNewsRepository) Name() string {
	return "rss"
}

func (r *rssNewsRepository) FetchNews(ctx context.Context, symbol, companyName string, since time.Time, limit int) ([]dto.ProviderArticle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf(r.cfg.RSS.FeedURLTemplate, url.QueryEscape(symbol))
	feed, err := r.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.TransientProvider, err, "parse rss feed")
	}

	sort.Slice(feed.Items, func(i, j int) bool {
		if feed.Items[i].PublishedParsed == nil || feed.Items[j].PublishedParsed == nil {
			return false
		}
		return feed.Items[i].PublishedParsed.After(*feed.Items[j].PublishedParsed)
	})

	articles := make([]dto.ProviderArticle, 0, limit)
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		if item.PublishedParsed == nil {
			r.log.DebugContext(ctx, "Skipping feed item without published date",
				logger.StringField("symbol", symbol),
				logger.StringField("link", item.Link),
			)
			continue
		}
		publishedAt := item.PublishedParsed.UTC()
		if publishedAt.Before(since) {
			continue
		}

		article := dto.ProviderArticle{
			Title:       item.Title,
			Content:     strings.TrimSpace(item.Description),
			URL:         item.Link,
			PublishedAt: publishedAt,
			Source:      feed.Title,
		}
		if len(item.Authors) > 0 {
			article.Author = item.Authors[0].Name
		}

		if r.cfg.RSS.FetchContent && item.Link != "" {
			content, err := r.fetchArticleContent(ctx, item.Link)
			if err != nil {
				// keep the feed summary, the full body is best effort
				r.log.WarnContext(ctx, "Failed to fetch article content",
					logger.StringField("symbol", symbol),
					logger.StringField("url", item.Link),
					logger.ErrorField(err),
				)
			} else if content != "" {
				article.Content = content
			}
		}

		articles = append(articles, article)
	}
	return articles, nil
}

func (r *rssNewsRepository) fetchArticleContent(ctx context.Context, link string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("create request for article: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch article, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read article body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("parse article content: %w", err)
	}
	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("parse article content: %w", err)
	}

	content := strings.TrimSpace(docHTML.Text())
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\t", " ")
	content = strings.ReplaceAll(content, "\r", " ")
	return strings.Join(strings.Fields(content), " "), nil
}
