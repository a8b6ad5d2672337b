package library

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical layout:
//
//	movies/Title (Year)/Title (Year).ext
//	shows/Title (Year)/Season 02/Title - S02E05.ext
//
// Folder and file names are a pure function of the matched metadata, never of
// the uploaded filename or upload order.

var unsafeRunes = strings.NewReplacer(
	"/", "", "\\", "", ":", "", "*", "", "?", "",
	`"`, "", "<", "", ">", "", "|", "",
)

var folderYearRegex = regexp.MustCompile(`^(.+) \((\d{4})\)$`)

// scrubName removes filesystem-unsafe runes and trailing dots so a metadata
// title is always a valid folder or file name.
func scrubName(name string) string {
	scrubbed := unsafeRunes.Replace(name)
	scrubbed = strings.Trim(scrubbed, " .")
	if scrubbed == "" {
		return "unknown"
	}
	return scrubbed
}

// MovieFolder names the folder for a movie. A zero year is left off.
func MovieFolder(title string, year int) string {
	if year == 0 {
		return scrubName(title)
	}
	return fmt.Sprintf("%s (%d)", scrubName(title), year)
}

// MovieFileName names the media file inside a movie folder.
func MovieFileName(title string, year int, ext string) string {
	return MovieFolder(title, year) + ext
}

// ShowFolder names the folder for a show. Shows share the movie shape, the
// season level nests beneath.
func ShowFolder(title string, year int) string {
	return MovieFolder(title, year)
}

// SeasonFolder formats a season directory as "Season XX"
func SeasonFolder(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

// EpisodeFileName names an episode file inside a season folder.
func EpisodeFileName(title string, season, episode int, ext string) string {
	return fmt.Sprintf("%s - S%02dE%02d%s", scrubName(title), season, episode, ext)
}

// splitFolderName recovers the title and year from a canonical folder name.
// Folders without a year report zero.
func splitFolderName(folder string) (title string, year int) {
	if m := folderYearRegex.FindStringSubmatch(folder); m != nil {
		var y int
		fmt.Sscanf(m[2], "%d", &y)
		return m[1], y
	}
	return folder, 0
}
