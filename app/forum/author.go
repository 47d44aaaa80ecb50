package forum

import (
	"fmt"
	"net/url"
	"strings"
)

// RegionUnknown is the sentinel region for display names without a region code.
const RegionUnknown = "UNKNOWN"

const avatarURLTemplate = "https://avatar.leagueoflegends.com/%s/%s.png"

// SplitDisplayName splits a forum display name like "Foo (NA)" into its
// username and region parts. A missing closing parenthesis is tolerated; a
// missing opening parenthesis yields RegionUnknown and the full string as
// username.
func SplitDisplayName(display string) (username, region string) {
	open := strings.Index(display, "(")
	if open < 0 {
		return strings.TrimSpace(display), RegionUnknown
	}

	username = strings.TrimSpace(display[:open])
	region = display[open+1:]
	if end := strings.Index(region, ")"); end >= 0 {
		region = region[:end]
	}
	region = strings.TrimSpace(region)
	if region == "" {
		region = RegionUnknown
	}

	return username, region
}

// AvatarURL builds the summoner avatar URL for a username/region pair.
// Both segments are URL-encoded.
func AvatarURL(region, username string) string {
	return fmt.Sprintf(avatarURLTemplate, url.PathEscape(region), url.PathEscape(username))
}
