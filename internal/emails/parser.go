// Package emails extracts structured email data from mailbox export files
// (single EML messages or mbox archives).
package emails

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// ParsedEmail is the raw extraction result of one message, before the
// ingestion pipeline enriches it with a summary, category and vectors.
type ParsedEmail struct {
	From            string
	ToList          string
	CcList          string
	Subject         string
	Important       int
	Body            string
	AttachmentNames []string
	Date            time.Time
	Size            int64
}

// ParseEMLFile parses a single EML file.
func ParseEMLFile(filename string) (*ParsedEmail, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open EML file: %w", err)
	}

	email, err := ParseMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	email.Size = int64(len(raw))
	return email, nil
}

// ParseMBOXFile parses an mbox archive and returns all messages it could
// decode. Individual undecodable messages are skipped; the archive-level
// error is reserved for I/O failures.
func ParseMBOXFile(filename string) ([]*ParsedEmail, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open mbox file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var emails []*ParsedEmail
	var current bytes.Buffer

	flush := func() {
		if current.Len() == 0 {
			return
		}
		email, err := ParseMessage(bytes.NewReader(current.Bytes()))
		if err == nil {
			email.Size = int64(current.Len())
			emails = append(emails, email)
		}
		current.Reset()
	}

	// mbox framing: a "From " line is a message separator only at a message
	// boundary (file start or after a blank line); inside a body it is data.
	atBoundary := true
	for scanner.Scan() {
		line := scanner.Text()
		if atBoundary && strings.HasPrefix(line, "From ") {
			flush()
			atBoundary = false
			continue
		}
		current.WriteString(unquoteFromLine(line))
		current.WriteString("\n")
		atBoundary = line == ""
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading mbox file: %w", err)
	}

	return emails, nil
}

// unquoteFromLine reverses mboxrd quoting: a body line matching ">*From " had
// one ">" prepended when the archive was written, so one is stripped here.
func unquoteFromLine(line string) string {
	i := 0
	for i < len(line) && line[i] == '>' {
		i++
	}
	if i > 0 && strings.HasPrefix(line[i:], "From ") {
		return line[1:]
	}
	return line
}

// ParseMessage parses one RFC 5322 message from a reader.
func ParseMessage(r io.Reader) (*ParsedEmail, error) {
	reader, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email message: %w", err)
	}

	email := &ParsedEmail{
		Important: parseImportance(reader.Header.Get("Importance"), reader.Header.Get("X-Priority")),
	}

	if subject, err := reader.Header.Subject(); err == nil {
		email.Subject = subject
	}
	if from, err := reader.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
	}
	email.ToList = joinAddresses(reader.Header, "To")
	email.CcList = joinAddresses(reader.Header, "Cc")

	if date, err := reader.Header.Date(); err == nil {
		email.Date = date.UTC()
	} else {
		email.Date = time.Now().UTC()
	}

	var textParts, htmlParts []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			mediaType, _, _ := header.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case strings.HasPrefix(mediaType, "text/plain") || mediaType == "":
				textParts = append(textParts, string(body))
			case strings.HasPrefix(mediaType, "text/html"):
				htmlParts = append(htmlParts, string(body))
			}
		case *mail.AttachmentHeader:
			filename, _ := header.Filename()
			if strings.TrimSpace(filename) == "" {
				filename = "attachment"
			}
			email.AttachmentNames = append(email.AttachmentNames, filename)
			// Attachment contents are not indexed, only their names.
			_, _ = io.Copy(io.Discard, part.Body)
		}
	}

	// Prefer plain text; fall back to stripped HTML.
	if len(textParts) > 0 {
		email.Body = strings.TrimSpace(strings.Join(textParts, "\n\n"))
	} else if len(htmlParts) > 0 {
		email.Body = stripHTML(strings.Join(htmlParts, "\n\n"))
	}

	return email, nil
}

func joinAddresses(header mail.Header, field string) string {
	list, err := header.AddressList(field)
	if err != nil || len(list) == 0 {
		return ""
	}
	addresses := make([]string, len(list))
	for i, addr := range list {
		addresses[i] = addr.Address
	}
	return strings.Join(addresses, ",")
}

// parseImportance maps Importance/X-Priority headers to the ordinal used by
// the document schema: 0 low, 1 normal, 2 high.
func parseImportance(importance, priority string) int {
	switch strings.ToLower(strings.TrimSpace(importance)) {
	case "high":
		return 2
	case "low":
		return 0
	}

	if len(priority) > 0 {
		switch priority[0] {
		case '1', '2':
			return 2
		case '4', '5':
			return 0
		}
	}

	return 1
}

// stripHTML removes tags and collapses whitespace for HTML-only bodies.
func stripHTML(html string) string {
	html = removeTagWithContent(html, "script")
	html = removeTagWithContent(html, "style")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"<br>", "\n",
		"<br/>", "\n",
		"<br />", "\n",
		"</p>", "\n\n",
		"</div>", "\n",
	)
	html = replacer.Replace(html)

	var result strings.Builder
	inTag := false
	for _, char := range html {
		switch {
		case char == '<':
			inTag = true
		case char == '>':
			inTag = false
		case !inTag:
			result.WriteRune(char)
		}
	}

	text := strings.TrimSpace(result.String())
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}

func removeTagWithContent(html, tag string) string {
	lower := strings.ToLower(html)
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	for {
		start := strings.Index(lower, openTag)
		if start == -1 {
			break
		}
		end := strings.Index(lower[start:], closeTag)
		if end == -1 {
			break
		}
		end += start + len(closeTag)
		html = html[:start] + html[end:]
		lower = lower[:start] + lower[end:]
	}

	return html
}
