package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const maxSocialLinks = 10

var platformPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

// SocialLinks maps a platform name (e.g. "instagram") to a profile URL.
type SocialLinks map[string]string

// Normalize lower-cases platform keys and trims values.
func (s SocialLinks) Normalize() SocialLinks {
	if s == nil {
		return SocialLinks{}
	}
	out := make(SocialLinks, len(s))
	for platform, link := range s {
		out[strings.ToLower(strings.TrimSpace(platform))] = strings.TrimSpace(link)
	}
	return out
}

// Validate checks platform names and requires absolute http(s) URLs.
func (s SocialLinks) Validate() error {
	if len(s) > maxSocialLinks {
		return fmt.Errorf("at most %d social links are allowed", maxSocialLinks)
	}
	for platform, link := range s {
		if !platformPattern.MatchString(platform) {
			return fmt.Errorf("invalid social platform %q", platform)
		}
		u, err := url.Parse(link)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("social link for %s must be an absolute http(s) url", platform)
		}
	}
	return nil
}

// Value stores the links as a JSON object.
func (s SocialLinks) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]string(s))
	if err != nil {
		return nil, fmt.Errorf("social links: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the JSON object written by Value.
func (s *SocialLinks) Scan(value interface{}) error {
	if value == nil {
		*s = SocialLinks{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("social links: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*s = SocialLinks{}
		return nil
	}

	decoded := map[string]string{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("social links: %w", err)
	}
	*s = SocialLinks(decoded)
	return nil
}
