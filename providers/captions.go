package providers

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// minTranscriptLength filters out caption responses that parsed but hold
// no real content (empty tracks, cookie walls rendered as XML).
const minTranscriptLength = 100

var captionURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"baseUrl":"(https://www\.youtube\.com/api/timedtext[^"]+)"`),
	regexp.MustCompile(`"captionTracks":\[\{"baseUrl":"([^"]+)"`),
}

// CaptionsProvider scrapes caption track URLs out of the watch page and
// fetches the timed text directly. Free, but the first to break when
// YouTube rotates its markup.
type CaptionsProvider struct {
	client *resty.Client
	quota  *Quota
}

func NewCaptionsProvider(timeout time.Duration, quota *Quota) *CaptionsProvider {
	return &CaptionsProvider{
		client: newHTTPClient(timeout),
		quota:  quota,
	}
}

func (p *CaptionsProvider) Name() string { return "captions" }

func (p *CaptionsProvider) Fetch(ctx context.Context, video VideoRef) (string, error) {
	if err := p.quota.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "quota wait")
	}

	resp, err := p.client.R().
		SetContext(ctx).
		Get("https://www.youtube.com/watch?v=" + video.VideoID)
	if err != nil {
		return "", errors.Wrap(err, "fetch watch page")
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("watch page returned status %d", resp.StatusCode())
	}

	urls := extractCaptionURLs(resp.String(), video.VideoID)
	for _, captionURL := range urls {
		text, err := p.fetchCaptionTrack(ctx, captionURL)
		if err != nil {
			continue
		}
		if len(text) >= minTranscriptLength {
			return text, nil
		}
	}

	return "", fmt.Errorf("no usable caption track for video %s", video.VideoID)
}

func (p *CaptionsProvider) fetchCaptionTrack(ctx context.Context, captionURL string) (string, error) {
	resp, err := p.client.R().SetContext(ctx).Get(captionURL)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("caption track returned status %d", resp.StatusCode())
	}
	return parseCaptionContent(resp.String())
}

// extractCaptionURLs finds timedtext URLs in watch-page HTML, falling
// back to the well-known URL shapes when the markup yields nothing.
func extractCaptionURLs(html, videoID string) []string {
	var urls []string
	for _, pattern := range captionURLPatterns {
		for _, m := range pattern.FindAllStringSubmatch(html, -1) {
			if len(m) > 1 {
				cleaned := strings.ReplaceAll(m[1], `\u0026`, "&")
				cleaned = strings.ReplaceAll(cleaned, `\/`, "/")
				urls = append(urls, cleaned)
			}
		}
	}

	if len(urls) == 0 {
		urls = []string{
			fmt.Sprintf("https://www.youtube.com/api/timedtext?v=%s&lang=en&fmt=json3", videoID),
			fmt.Sprintf("https://www.youtube.com/api/timedtext?v=%s&lang=en-US&fmt=json3", videoID),
			fmt.Sprintf("https://www.youtube.com/api/timedtext?v=%s&lang=en&fmt=srv3", videoID),
		}
	}

	return urls
}

type timedTextJSON struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

type timedTextXML struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// parseCaptionContent handles both the json3 and the legacy XML timed
// text formats.
func parseCaptionContent(content string) (string, error) {
	var asJSON timedTextJSON
	if err := json.Unmarshal([]byte(content), &asJSON); err == nil && len(asJSON.Events) > 0 {
		var parts []string
		for _, event := range asJSON.Events {
			for _, seg := range event.Segs {
				if seg.UTF8 != "" {
					parts = append(parts, seg.UTF8)
				}
			}
		}
		if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
			return collapseWhitespace(joined), nil
		}
	}

	var asXML timedTextXML
	if err := xml.Unmarshal([]byte(content), &asXML); err == nil && len(asXML.Texts) > 0 {
		var parts []string
		for _, text := range asXML.Texts {
			if trimmed := strings.TrimSpace(text.Value); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
			return collapseWhitespace(joined), nil
		}
	}

	return "", fmt.Errorf("unrecognized caption format")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
