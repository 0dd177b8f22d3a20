package telegram

import (
	"html"
	"strings"

	"github.com/zelenin/go-tdlib/client"
)

// formatHTML переводит текст с тегами <b> в FormattedText.
// Остальные теги остаются как есть, HTML сущности раскрываются.
// Смещения TDLib считаются в UTF-16 единицах.
func formatHTML(text string) *client.FormattedText {
	var (
		out      strings.Builder
		entities []*client.TextEntity
		offset   int32
		boldFrom int32 = -1
	)

	write := func(segment string) {
		segment = html.UnescapeString(segment)
		out.WriteString(segment)
		offset += utf16Len(segment)
	}

	rest := text
	for rest != "" {
		i := strings.IndexByte(rest, '<')
		if i < 0 {
			write(rest)
			break
		}
		write(rest[:i])
		rest = rest[i:]

		switch {
		case strings.HasPrefix(rest, "<b>") && boldFrom < 0:
			boldFrom = offset
			rest = rest[len("<b>"):]
		case strings.HasPrefix(rest, "</b>") && boldFrom >= 0:
			if offset > boldFrom {
				entities = append(entities, &client.TextEntity{
					Offset: boldFrom,
					Length: offset - boldFrom,
					Type:   &client.TextEntityTypeBold{},
				})
			}
			boldFrom = -1
			rest = rest[len("</b>"):]
		default:
			write(rest[:1])
			rest = rest[1:]
		}
	}

	return &client.FormattedText{
		Text:     out.String(),
		Entities: entities,
	}
}

func utf16Len(s string) int32 {
	var n int32
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
