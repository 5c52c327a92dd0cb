// Package markdown compiles content files into typed slide sequences.
//
// A file is split into blocks on lines that are exactly "---". Inside a
// block, directive lines set the slide type or payload and every other line
// becomes slide content:
//
//	> NOTE: text          presenter note (one per line, newline-joined)
//	![alt](url)           image slide
//	(video: url)          video slide
//	(countdown: mm:ss)    countdown slide
//	(blank) / (logo)      blank or logo slide
//	# Heading             slide title, kept out of the projected content
//
// When several type directives appear in one block the last one wins.
package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Vasu1712/worship-sync/internal/models"
)

const (
	slideSeparator = "---"
	notePrefix     = "> NOTE:"
	titlePrefix    = "# "
	untitled       = "Untitled"
)

var (
	imagePattern     = regexp.MustCompile(`^!\[.*?\]\((.*?)\)`)
	videoPattern     = regexp.MustCompile(`^\(video:\s*(.*?)\)`)
	countdownPattern = regexp.MustCompile(`^\(countdown:\s*(\d+):(\d+)\)`)
)

// Compile turns raw markdown into slides. It never fails: a line that looks
// like a directive but does not parse is kept as plain content.
func Compile(raw string) []models.Slide {
	var slides []models.Slide
	for _, block := range splitBlocks(raw) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		slide := compileBlock(block)
		slide.ID = fmt.Sprintf("slide-%d", len(slides))
		slides = append(slides, slide)
	}
	return slides
}

// ExtractTitle returns the first "# " heading in raw, or "Untitled".
func ExtractTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, titlePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, titlePrefix))
		}
	}
	return untitled
}

func splitBlocks(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var (
		blocks  []string
		current []string
	)
	for _, line := range strings.Split(raw, "\n") {
		if line == slideSeparator {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	return append(blocks, strings.Join(current, "\n"))
}

func compileBlock(block string) models.Slide {
	slide := models.Slide{Type: models.SlideText}
	var (
		content []string
		notes   []string
	)
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, notePrefix):
			notes = append(notes, strings.TrimSpace(strings.TrimPrefix(trimmed, notePrefix)))
		case slide.Title == "" && strings.HasPrefix(line, titlePrefix):
			slide.Title = strings.TrimSpace(strings.TrimPrefix(line, titlePrefix))
		case trimmed == "(blank)":
			slide.Type = models.SlideBlank
		case trimmed == "(logo)":
			slide.Type = models.SlideLogo
		default:
			if !applyPayload(&slide, trimmed) {
				content = append(content, line)
			}
		}
	}
	slide.Content = strings.TrimSpace(strings.Join(content, "\n"))
	slide.Notes = strings.TrimSpace(strings.Join(notes, "\n"))
	return slide
}

// applyPayload handles the image, video and countdown directives. It reports
// false when the line is not a well-formed directive.
func applyPayload(slide *models.Slide, line string) bool {
	if m := imagePattern.FindStringSubmatch(line); m != nil {
		slide.ImageURL = m[1]
		slide.Type = models.SlideImage
		return true
	}
	if m := videoPattern.FindStringSubmatch(line); m != nil {
		slide.VideoURL = strings.TrimSpace(m[1])
		slide.Type = models.SlideVideo
		return true
	}
	if m := countdownPattern.FindStringSubmatch(line); m != nil {
		minutes, errM := strconv.Atoi(m[1])
		seconds, errS := strconv.Atoi(m[2])
		if errM != nil || errS != nil {
			return false
		}
		slide.Countdown = &models.Countdown{Minutes: minutes, Seconds: seconds}
		slide.Type = models.SlideCountdown
		return true
	}
	return false
}
