// Package parse extracts a title, release year, and season/episode numbers
// from release-style filenames. Parsing never fails; when no structure is
// found the raw name is carried through as a low-confidence title.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the parser's guess at what a filename represents.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
	KindUnknown Kind = "unknown"
)

// Parsed is the immutable result of parsing a filename.
type Parsed struct {
	Raw     string `json:"raw"`
	Title   string `json:"title"`
	Year    *int   `json:"year,omitempty"`
	Season  *int   `json:"season,omitempty"`
	Episode *int   `json:"episode,omitempty"`
	Kind    Kind   `json:"kind"`
}

var (
	seasonEpisodeRegex = regexp.MustCompile(`^[sS](\d{1,2})[eE](\d{1,2})$`)
	altEpisodeRegex    = regexp.MustCompile(`^(\d{1,2})[xX](\d{1,2})$`)
	bareEpisodeRegex   = regexp.MustCompile(`^[eE][pP]?(\d{1,2})$`)
	yearRegex          = regexp.MustCompile(`^\(?(\d{4})\)?$`)
)

// noiseTokens are release-naming tokens that carry no title information:
// resolutions, source tags, codecs, audio formats, and other scene markers.
var noiseTokens = map[string]struct{}{
	"480p": {}, "576p": {}, "720p": {}, "1080p": {}, "1080i": {}, "2160p": {},
	"4k": {}, "uhd": {}, "hd": {}, "sd": {},
	"bluray": {}, "blu-ray": {}, "bdrip": {}, "brrip": {}, "remux": {},
	"webdl": {}, "web-dl": {}, "webrip": {}, "web": {}, "hdtv": {}, "pdtv": {},
	"sdtv": {}, "dvdrip": {}, "dvd": {}, "dvdscr": {}, "cam": {}, "hdts": {},
	"amzn": {}, "nf": {}, "dsnp": {}, "hmax": {}, "hulu": {}, "atvp": {},
	"x264": {}, "x265": {}, "h264": {}, "h265": {}, "hevc": {}, "avc": {}, "av1": {},
	"xvid": {}, "divx": {}, "vp9": {},
	"aac": {}, "ac3": {}, "eac3": {}, "dd": {}, "ddp": {}, "dts": {}, "dts-hd": {},
	"truehd": {}, "atmos": {}, "flac": {}, "opus": {}, "mp3": {},
	"2.0": {}, "5.1": {}, "7.1": {},
	"hdr": {}, "hdr10": {}, "dv": {}, "dovi": {}, "sdr": {}, "hlg": {},
	"10bit": {}, "8bit": {}, "hi10p": {},
	"proper": {}, "repack": {}, "internal": {}, "limited": {}, "unrated": {},
	"extended": {}, "remastered": {}, "imax": {}, "multi": {}, "dual": {},
	"subbed": {}, "dubbed": {}, "sub": {}, "subs": {},
}

var titleCaser = cases.Title(language.English)

// ParseFilename parses a filename without its extension. It tokenizes on the
// dominant separator and brackets, strips known noise tokens, and takes the
// leading token run up to the first year or episode marker as the title.
func ParseFilename(name string) Parsed {
	result := Parsed{
		Raw:  name,
		Kind: KindUnknown,
	}

	tokens := tokenize(name)
	end := len(tokens)

	for i, token := range tokens {
		if season, episode, ok := matchEpisodeMarker(token); ok {
			if result.Season == nil {
				result.Season = &season
				result.Episode = &episode
			}
			if i < end {
				end = i
			}
			continue
		}

		if year, ok := matchYear(token); ok && result.Year == nil && i > 0 {
			result.Year = &year
			if i < end {
				end = i
			}
			continue
		}

		if isNoise(token) && i < end {
			end = i
		}
	}

	title := make([]string, 0, end)
	for _, token := range tokens[:end] {
		if isNoise(token) {
			continue
		}
		title = append(title, token)
	}

	switch {
	case result.Season != nil:
		result.Kind = KindEpisode
	case result.Year != nil:
		result.Kind = KindMovie
	}

	if len(title) == 0 {
		// no usable structure, degrade to the raw name verbatim
		result.Title = name
		result.Year = nil
		result.Season = nil
		result.Episode = nil
		result.Kind = KindUnknown
		return result
	}

	result.Title = displayTitle(strings.Join(title, " "))
	return result
}

// tokenize splits on the dominant separator after flattening brackets. The
// original token casing is kept for display.
func tokenize(name string) []string {
	flattened := strings.NewReplacer("[", " ", "]", " ", "{", " ", "}", " ").Replace(name)

	sep := determineSeparator(flattened)
	if sep != "" && sep != " " {
		flattened = strings.ReplaceAll(flattened, sep, " ")
	}

	fields := strings.Fields(flattened)
	tokens := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool {
			return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		}) < 0 {
			// punctuation left over from a secondary separator
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// determineSeparator tries to determine the separator between the parts of
// the filename. It assumes it is one of `.`, `_`, `-`, ` ` and decides based
// on which one is most present.
func determineSeparator(filename string) string {
	count := 0
	currSep := ""
	for _, sep := range []string{".", "_", "-", " "} {
		if strings.Count(filename, sep) > count {
			count = strings.Count(filename, sep)
			currSep = sep
		}
	}

	return currSep
}

func matchEpisodeMarker(token string) (season, episode int, ok bool) {
	if m := seasonEpisodeRegex.FindStringSubmatch(token); m != nil {
		season, _ = strconv.Atoi(m[1])
		episode, _ = strconv.Atoi(m[2])
		return season, episode, true
	}

	if m := altEpisodeRegex.FindStringSubmatch(token); m != nil {
		season, _ = strconv.Atoi(m[1])
		episode, _ = strconv.Atoi(m[2])
		return season, episode, true
	}

	if m := bareEpisodeRegex.FindStringSubmatch(token); m != nil {
		episode, _ = strconv.Atoi(m[1])
		return 1, episode, true
	}

	return 0, 0, false
}

// matchYear accepts 4-digit tokens inside a plausible release window.
func matchYear(token string) (int, bool) {
	m := yearRegex.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}

	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	if year < 1900 || year > time.Now().Year()+1 {
		return 0, false
	}

	return year, true
}

func isNoise(token string) bool {
	_, ok := noiseTokens[strings.ToLower(strings.Trim(token, "()"))]
	return ok
}

// displayTitle keeps the author's casing unless the name was all lowercase,
// which is common in dotted release names.
func displayTitle(title string) string {
	if title == strings.ToLower(title) {
		return strings.TrimSpace(titleCaser.String(title))
	}
	return strings.TrimSpace(title)
}
