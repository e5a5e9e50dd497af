// Package markdown converts model output into Telegram MarkdownV2 text.
// Model responses arrive as loose Markdown; Telegram's MarkdownV2 parser
// rejects unescaped reserved characters, so everything outside recognized
// formatting spans must be escaped before sending.
package markdown

import "strings"

// MaxMessageLength is Telegram's hard limit for a single message.
const MaxMessageLength = 4096

// escapeSet covers every character Telegram's MarkdownV2 parser reserves.
const escapeSet = "_*[]()~`>#+-=|{}.!"

// EscapeText escapes a plain-text fragment for MarkdownV2 with no formatting
// intended.
func EscapeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(escapeSet, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// escapeCode escapes the characters reserved inside MarkdownV2 code spans.
func escapeCode(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "`", "\\`")
}

// Render converts loose Markdown to MarkdownV2. It preserves fenced code
// blocks, inline code, and bold/italic emphasis, escaping everything else.
// The conversion is line-oriented: fenced blocks are detected first since
// their content must not be reformatted.
func Render(text string) string {
	var out strings.Builder
	lines := strings.Split(text, "\n")

	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			// Fence markers pass through; language tags are allowed as-is.
			out.WriteString(trimmed)
			inFence = !inFence
		case inFence:
			out.WriteString(escapeCode(line))
		default:
			out.WriteString(renderInline(line))
		}
		if i < len(lines)-1 {
			out.WriteByte('\n')
		}
	}

	return out.String()
}

// renderInline escapes a single non-code line while preserving `code`,
// **bold** (converted to MarkdownV2 *bold*), and *italic* (converted to
// _italic_) spans.
func renderInline(line string) string {
	var out strings.Builder
	rest := line

	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "`"):
			end := strings.Index(rest[1:], "`")
			if end < 0 {
				out.WriteString(EscapeText(rest))
				return out.String()
			}
			out.WriteByte('`')
			out.WriteString(escapeCode(rest[1 : 1+end]))
			out.WriteByte('`')
			rest = rest[end+2:]
		case strings.HasPrefix(rest, "**"):
			end := strings.Index(rest[2:], "**")
			if end < 0 {
				out.WriteString(EscapeText(rest))
				return out.String()
			}
			out.WriteByte('*')
			out.WriteString(EscapeText(rest[2 : 2+end]))
			out.WriteByte('*')
			rest = rest[end+4:]
		case strings.HasPrefix(rest, "*"):
			end := strings.Index(rest[1:], "*")
			if end < 0 {
				out.WriteString(EscapeText(rest))
				return out.String()
			}
			out.WriteByte('_')
			out.WriteString(EscapeText(rest[1 : 1+end]))
			out.WriteByte('_')
			rest = rest[end+2:]
		default:
			next := strings.IndexAny(rest, "`*")
			if next < 0 {
				out.WriteString(EscapeText(rest))
				return out.String()
			}
			out.WriteString(EscapeText(rest[:next]))
			rest = rest[next:]
		}
	}

	return out.String()
}

// Split breaks text into chunks that fit Telegram's message length limit,
// preferring paragraph boundaries, then line boundaries, then a hard cut.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		if len(para) > limit {
			flush()
			for _, line := range strings.Split(para, "\n") {
				for len(line) > limit {
					chunks = append(chunks, line[:limit])
					line = line[limit:]
				}
				if current.Len()+len(line)+1 > limit {
					flush()
				}
				if current.Len() > 0 {
					current.WriteByte('\n')
				}
				current.WriteString(line)
			}
			continue
		}

		if current.Len()+len(para)+2 > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}
