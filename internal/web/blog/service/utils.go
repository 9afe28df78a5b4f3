package service

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/Laisky/envo-blog/internal/web/blog/dto"
)

var (
	titleRegexp = regexp.MustCompile(`<(h[23])[^>]*>([^<]+)</h[23]>`)
	validHtmlId = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
)

// ParseMarkdown2HTML renders post content to HTML.
// Raw HTML in the source is dropped and h2/h3 titles get stable anchor ids.
func ParseMarkdown2HTML(md string) (cnt string, headings []dto.Heading) {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML,
	})
	cnt = string(markdown.ToHTML([]byte(md), p, renderer))

	headings = []dto.Heading{}
	seen := map[string]int{}
	cnt = titleRegexp.ReplaceAllStringFunc(cnt, func(tag string) string {
		m := titleRegexp.FindStringSubmatch(tag)
		level, _ := strconv.Atoi(m[1][1:])
		id := convertTitleID(html.UnescapeString(m[2]))
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id += "-" + strconv.Itoa(n)
		} else {
			seen[id] = 1
		}

		headings = append(headings, dto.Heading{Level: level, ID: id, Text: html.UnescapeString(m[2])})
		return `<` + m[1] + ` id="` + id + `">` + m[2] + `</` + m[1] + `>`
	})

	return cnt, headings
}

// convertTitleID convert title to valid html id
//
// https://www.w3.org/TR/REC-html40/types.html#:~:text=ID%20and%20NAME%20tokens%20must,periods%20(%22.%22).
func convertTitleID(title string) string {
	return "header-" + validHtmlId.ReplaceAllString(url.QueryEscape(title), "")
}

// SplitParagraphs splits content on line breaks, trimming each line and dropping blank ones.
func SplitParagraphs(content string) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}

	return paragraphs
}
