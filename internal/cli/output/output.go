package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

// view describes how one list payload key renders. The first field is the
// row identifier printed by quiet output.
type view struct {
	key    string
	fields []string
}

var views = []view{
	{"courses", []string{"_id", "title", "instructor", "price", "category"}},
	{"posts", []string{"_id", "authorId", "content", "likes", "comments", "isPinned"}},
	{"reports", []string{"_id", "type", "targetType", "targetId", "status", "reporterId"}},
	{"notifications", []string{"_id", "message", "read", "createdAt"}},
	{"users", []string{"_id", "fullname", "email", "role", "points"}},
	{"leaderboard", []string{"rank", "fullname", "points", "userId"}},
	{"members", []string{"userId", "role"}},
	{"lessons", []string{"_id", "order", "title", "videoUrl"}},
	{"messages", []string{"_id", "senderId", "receiverId", "content", "createdAt"}},
	{"communities", []string{"_id", "name", "members", "description"}},
	{"questions", []string{"_id", "question", "points", "options"}},
}

func Print(payload map[string]any, format string, quiet bool) error {
	return Fprint(os.Stdout, payload, format, quiet)
}

func Fprint(w io.Writer, payload map[string]any, format string, quiet bool) error {
	if quiet {
		format = "quiet"
	}
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}

	switch format {
	case "json":
		return printJSON(w, payload)
	case "table":
		return printTable(w, payload)
	case "plain":
		return printPlain(w, payload)
	case "md":
		return printMarkdown(w, payload)
	case "quiet":
		return printQuiet(w, payload)
	default:
		return errors.New("invalid --format value")
	}
}

// ValidFormat reports whether f is accepted by Print.
func ValidFormat(f string) bool {
	switch strings.TrimSpace(strings.ToLower(f)) {
	case "", "json", "table", "plain", "md", "quiet":
		return true
	}
	return false
}

func findView(payload map[string]any) (view, bool) {
	for _, v := range views {
		if hasKey(payload, v.key) {
			return v, true
		}
	}
	return view{}, false
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printTable(w io.Writer, payload map[string]any) error {
	v, ok := findView(payload)
	if !ok {
		return printJSON(w, payload)
	}
	headers := make([]string, len(v.fields))
	for i, f := range v.fields {
		headers[i] = header(f)
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range toObjectSlice(payload[v.key]) {
		fmt.Fprintln(w, strings.Join(cells(row, v.fields), "\t"))
	}
	return nil
}

func printPlain(w io.Writer, payload map[string]any) error {
	v, ok := findView(payload)
	if !ok {
		if hasKey(payload, "message") {
			fmt.Fprintln(w, str(payload["message"]))
			return nil
		}
		return printJSON(w, payload)
	}
	n := min(3, len(v.fields))
	for _, row := range toObjectSlice(payload[v.key]) {
		fmt.Fprintln(w, strings.Join(cells(row, v.fields[:n]), " "))
	}
	return nil
}

func printMarkdown(w io.Writer, payload map[string]any) error {
	v, ok := findView(payload)
	if !ok {
		return printJSON(w, payload)
	}
	for _, row := range toObjectSlice(payload[v.key]) {
		c := cells(row, v.fields)
		fmt.Fprintf(w, "- `%s` **%s**", c[0], c[1])
		if len(c) > 2 && c[2] != "" {
			fmt.Fprintf(w, " (%s)", strings.Join(c[2:], ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func printQuiet(w io.Writer, payload map[string]any) error {
	v, ok := findView(payload)
	if !ok {
		for _, key := range []string{"_id", "id", "message"} {
			if id, ok := payload[key]; ok {
				fmt.Fprintln(w, str(id))
				return nil
			}
		}
		return printJSON(w, payload)
	}
	for _, row := range toObjectSlice(payload[v.key]) {
		fmt.Fprintln(w, str(row[v.fields[0]]))
	}
	return nil
}

func header(field string) string {
	field = strings.TrimPrefix(field, "_")
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func cells(row map[string]any, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = str(row[f])
	}
	return out
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func toObjectSlice(v any) []map[string]any {
	in, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(in))
	for _, item := range in {
		if row, ok := item.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	case []any:
		// likes, members, comments: show the count
		return fmt.Sprintf("%d", len(t))
	case map[string]any:
		// populated references
		for _, key := range []string{"fullname", "title", "name", "_id", "id"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
