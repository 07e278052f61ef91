package webinfo

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

const (
	NoWebsiteInfo      = "ウェブサイト情報なし"
	WebsiteEmpty       = "Webサイトに内容がありません"
	WebsiteUnreachable = "Webサイトにアクセス不可"

	maxSummaryRunes = 1200
	userAgent       = "Mozilla/5.0"
	cacheMaxCost    = 8 << 20
)

type webInfoService struct {
	log    logger.Logger
	client *http.Client
	cache  *ristretto.Cache[string, string]
	ttl    time.Duration
}

func NewWebInfoService(log logger.Logger, cfg *config.OutreachConfig, client *http.Client) (interfaces.WebInfoService, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.WebInfoTimeout}
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: 10_000,
		MaxCost:     cacheMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create website summary cache")
	}

	return &webInfoService{
		log:    log,
		client: client,
		cache:  cache,
		ttl:    cfg.WebInfoCacheTTL,
	}, nil
}

// Summarize returns visible page text for prompts. It never fails; problems map to fixed fallback strings.
func (s *webInfoService) Summarize(ctx context.Context, url string) string {
	span, ctx := opentracing.StartSpanFromContext(ctx, "WebInfoService.Summarize")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("url", url)

	url = strings.TrimSpace(url)
	if utils.IsBlank(url) || !strings.Contains(url, ".") {
		return NoWebsiteInfo
	}
	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}

	if summary, found := s.cache.Get(url); found {
		span.LogKV("cache", "hit")
		return summary
	}

	summary, err := s.fetch(ctx, url)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Infof("website %s unreachable: %v", url, err)
		return WebsiteUnreachable
	}

	if s.ttl > 0 {
		s.cache.SetWithTTL(url, summary, int64(len(summary)), s.ttl)
		s.cache.Wait()
	}
	return summary
}

func (s *webInfoService) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", errors.Errorf("status %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.Wrap(err, "unsupported charset")
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", errors.Wrap(err, "parse html")
	}
	doc.Find("script, style, header, footer, nav").Remove()

	text := utils.CollapseWhitespace(doc.Text())
	if text == "" {
		return WebsiteEmpty, nil
	}
	return utils.Truncate(text, maxSummaryRunes), nil
}
