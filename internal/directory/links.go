package directory

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	urlRegex         = regexp.MustCompile(`https?://[^\s<>"]+`)
	zoomMeetingRegex = regexp.MustCompile(`/j/(\d+)`)
	meetCodeRegex    = regexp.MustCompile(`/([a-z-]+)$`)
	whitespaceRegex  = regexp.MustCompile(`\s`)
	zoomIDRegex      = regexp.MustCompile(`^\d{9,11}$`)
)

type urlCandidate struct {
	Value      string
	SourceRank int
	JoinRank   int
	Platform   Platform
}

// JoinLinkFromText picks the best conferencing URL found in free text, in
// source order. It is used to recover a link when a row has none.
func JoinLinkFromText(texts ...string) (link string, platform Platform) {
	candidates := make([]urlCandidate, 0, 8)
	for rank, text := range texts {
		for _, found := range extractURLs(text) {
			detected, joinRank := platformRank(found)
			candidates = append(candidates, urlCandidate{Value: found, SourceRank: rank, JoinRank: joinRank, Platform: detected})
		}
	}

	unique := dedupeCandidates(candidates)
	if len(unique) == 0 {
		return "", ""
	}

	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].JoinRank != unique[j].JoinRank {
			return unique[i].JoinRank < unique[j].JoinRank
		}
		if unique[i].SourceRank != unique[j].SourceRank {
			return unique[i].SourceRank < unique[j].SourceRank
		}
		return unique[i].Value < unique[j].Value
	})

	for _, candidate := range unique {
		if candidate.JoinRank <= 10 {
			return candidate.Value, candidate.Platform
		}
	}
	return "", ""
}

func extractURLs(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	found := urlRegex.FindAllString(trimmed, -1)
	if len(found) == 0 {
		return nil
	}

	results := make([]string, 0, len(found))
	for _, item := range found {
		normalized := normalizeURL(item)
		if normalized == "" {
			continue
		}
		results = append(results, normalized)
	}
	return results
}

func dedupeCandidates(candidates []urlCandidate) []urlCandidate {
	seen := make(map[string]urlCandidate)
	order := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if existing, ok := seen[candidate.Value]; ok {
			if candidate.JoinRank < existing.JoinRank ||
				(candidate.JoinRank == existing.JoinRank && candidate.SourceRank < existing.SourceRank) {
				seen[candidate.Value] = candidate
			}
			continue
		}
		seen[candidate.Value] = candidate
		order = append(order, candidate.Value)
	}

	results := make([]urlCandidate, 0, len(seen))
	for _, value := range order {
		results = append(results, seen[value])
	}
	return results
}

func normalizeURL(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimRight(value, ".,;)")
	if value == "" {
		return ""
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return ""
	}
	return parsed.String()
}

func platformRank(value string) (Platform, int) {
	host := hostOf(value)
	switch {
	case strings.HasSuffix(host, "meet.google.com"):
		return PlatformGoogleMeet, 0
	case strings.HasSuffix(host, "zoom.us"), strings.HasSuffix(host, "zoomgov.com"):
		if strings.Contains(value, "/j/") || strings.Contains(value, "/wc/") {
			return PlatformZoom, 1
		}
		return PlatformZoom, 5
	case strings.HasSuffix(host, "teams.microsoft.com"), strings.HasSuffix(host, "teams.live.com"):
		return PlatformTeams, 2
	case strings.HasSuffix(host, "webex.com"):
		return PlatformWebex, 3
	default:
		return PlatformOther, 50
	}
}

// DetectPlatform classifies a join link by host.
func DetectPlatform(link string) Platform {
	platform, _ := platformRank(strings.TrimSpace(link))
	return platform
}

func hostOf(value string) string {
	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// ExtractMeetingID returns the platform meeting identifier embedded in a
// link, or "" when the platform does not expose one.
func ExtractMeetingID(link string, platform Platform) string {
	switch platform {
	case PlatformZoom:
		if match := zoomMeetingRegex.FindStringSubmatch(link); match != nil {
			return match[1]
		}
		return ""
	case PlatformGoogleMeet:
		if match := meetCodeRegex.FindStringSubmatch(link); match != nil {
			return match[1]
		}
		return ""
	case PlatformTeams:
		return "teams-meeting"
	default:
		return ""
	}
}

// ValidateLink checks the scheme and, for known platforms, the host.
func ValidateLink(link string, platform Platform) bool {
	if normalizeURL(link) == "" {
		return false
	}
	host := hostOf(link)
	switch platform {
	case PlatformZoom:
		return strings.HasSuffix(host, "zoom.us")
	case PlatformGoogleMeet:
		return strings.HasSuffix(host, "meet.google.com")
	case PlatformTeams:
		return strings.HasSuffix(host, "teams.microsoft.com")
	case PlatformWebex:
		return strings.HasSuffix(host, "webex.com")
	default:
		return true
	}
}

func cleanZoomID(zoomID string) string {
	return whitespaceRegex.ReplaceAllString(zoomID, "")
}

// ZoomJoinLink builds the web join link for a bare zoom meeting ID.
func ZoomJoinLink(zoomID string) string {
	cleaned := cleanZoomID(zoomID)
	if cleaned == "" {
		return ""
	}
	return fmt.Sprintf("https://zoom.us/j/%s", cleaned)
}

func ValidZoomID(zoomID string) bool {
	return zoomIDRegex.MatchString(cleanZoomID(zoomID))
}

// FormatZoomID groups digits as "123 456 789" (9-10 digits) or
// "123 4567 8901" (11 digits); other inputs are returned unchanged.
func FormatZoomID(zoomID string) string {
	cleaned := cleanZoomID(zoomID)
	switch len(cleaned) {
	case 9, 10:
		return cleaned[:3] + " " + cleaned[3:6] + " " + cleaned[6:]
	case 11:
		return cleaned[:3] + " " + cleaned[3:7] + " " + cleaned[7:]
	default:
		return zoomID
	}
}

func PlatformLabel(platform Platform) string {
	switch platform {
	case PlatformZoom:
		return "Zoom"
	case PlatformGoogleMeet:
		return "Google Meet"
	case PlatformTeams:
		return "Microsoft Teams"
	case PlatformWebex:
		return "Cisco Webex"
	case PlatformOther:
		return "Other platform"
	default:
		return string(platform)
	}
}
