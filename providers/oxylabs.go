package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const oxylabsEndpoint = "https://realtime.oxylabs.io/v1/queries"

// OxylabsProvider fetches the watch page through a rendering proxy.
// Useful when direct requests get blocked, at proxy-bandwidth cost.
type OxylabsProvider struct {
	client   *resty.Client
	quota    *Quota
	username string
	password string
}

func NewOxylabsProvider(username, password string, timeout time.Duration, quota *Quota) *OxylabsProvider {
	return &OxylabsProvider{
		client:   newHTTPClient(timeout),
		quota:    quota,
		username: username,
		password: password,
	}
}

func (p *OxylabsProvider) Name() string { return "oxylabs" }

type oxylabsResponse struct {
	Results []struct {
		Content string `json:"content"`
	} `json:"results"`
}

func (p *OxylabsProvider) Fetch(ctx context.Context, video VideoRef) (string, error) {
	if p.username == "" || p.password == "" {
		return "", fmt.Errorf("oxylabs credentials not configured")
	}
	if err := p.quota.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "quota wait")
	}

	var result oxylabsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.username, p.password).
		SetBody(map[string]string{
			"source": "universal",
			"url":    "https://www.youtube.com/watch?v=" + video.VideoID,
			"render": "html",
		}).
		SetResult(&result).
		Post(oxylabsEndpoint)
	if err != nil {
		return "", errors.Wrap(err, "proxy query")
	}
	if resp.StatusCode() != 200 || len(result.Results) == 0 {
		return "", fmt.Errorf("proxy returned status %d", resp.StatusCode())
	}

	urls := extractCaptionURLs(result.Results[0].Content, video.VideoID)
	for _, captionURL := range urls {
		text, err := p.fetchCaptionViaProxy(ctx, captionURL)
		if err != nil {
			continue
		}
		if len(text) >= minTranscriptLength {
			return text, nil
		}
	}

	return "", fmt.Errorf("no usable caption track via proxy for video %s", video.VideoID)
}

func (p *OxylabsProvider) fetchCaptionViaProxy(ctx context.Context, captionURL string) (string, error) {
	var result oxylabsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.username, p.password).
		SetBody(map[string]string{
			"source": "universal",
			"url":    captionURL,
		}).
		SetResult(&result).
		Post(oxylabsEndpoint)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 || len(result.Results) == 0 {
		return "", fmt.Errorf("proxy caption fetch returned status %d", resp.StatusCode())
	}
	return parseCaptionContent(result.Results[0].Content)
}
