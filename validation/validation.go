package validation

import (
	"net/url"
	"regexp"
	"strings"

	"ytsum/errors"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateURL checks that the string is a well-formed YouTube URL.
func (v *Validator) ValidateURL(urlStr string) error {
	const op = "Validator.ValidateURL"

	if urlStr == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	host := parsedURL.Hostname()
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return errors.InvalidInput(op, nil, "Only YouTube URLs are supported")
	}

	return nil
}

// ExtractVideoID pulls the 11-character video identifier out of the
// supported URL shapes (watch, youtu.be, embed).
func (v *Validator) ExtractVideoID(urlStr string) (string, error) {
	const op = "Validator.ExtractVideoID"

	if err := v.ValidateURL(urlStr); err != nil {
		return "", err
	}

	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(urlStr); len(m) > 1 {
			return m[1], nil
		}
	}

	return "", errors.InvalidInput(op, nil, "Invalid YouTube URL")
}
