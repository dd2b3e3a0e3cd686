// Package command parses slash commands into typed values so handlers
// never re-split raw text.
package command

import (
	"errors"
	"fmt"
	"strings"
)

type Name string

const (
	Start         Name = "start"
	Menu          Name = "menu"
	Broadcast     Name = "broadcast"
	Cancel        Name = "cancel"
	CheckDB       Name = "check_db"
	CheckTickets  Name = "check_tickets"
	DeleteUser    Name = "delete_user"
	AddFolder     Name = "add_folder"
	DeleteFolder  Name = "delete_folder"
	DeletePost    Name = "delete_post"
	FindUser      Name = "find_user"
	ExportCSV     Name = "export_csv"
	SendToUser    Name = "send_to_user"
	SendSegment   Name = "send_segment"
	DeleteSegment Name = "delete_segment"
)

var (
	// ErrNotCommand means the text does not start with a slash at all.
	ErrNotCommand = errors.New("not a command")
	// ErrUnknown means a slash prefix with an unrecognized name; the
	// dispatcher drops these silently.
	ErrUnknown = errors.New("unknown command")
)

// UsageError carries the user-facing format hint for a malformed
// invocation of a known command.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string { return e.Usage }

// Command is one parsed invocation. Only the fields the command accepts
// are populated.
type Command struct {
	Name        Name
	Identifier  string
	Identifiers []string
	Text        string
	FolderName  string
	PostTitle   string
	Query       string
}

// Parse splits text into a typed command. The command token tolerates a
// @botname suffix, as delivered in group chats.
func Parse(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, ErrNotCommand
	}
	head, args, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	args = strings.TrimSpace(args)

	name := Name(strings.ToLower(head))
	switch name {
	case Start, Menu, Broadcast, Cancel, CheckDB, CheckTickets, ExportCSV:
		return &Command{Name: name}, nil

	case DeleteUser:
		if args == "" || len(strings.Fields(args)) != 1 {
			return nil, &UsageError{Usage: "Формат: /delete_user <ID або телефон>"}
		}
		return &Command{Name: name, Identifier: args}, nil

	case AddFolder, DeleteFolder:
		folder := unquote(args)
		if folder == "" {
			return nil, &UsageError{Usage: fmt.Sprintf("Формат: /%s <назва папки>", name)}
		}
		return &Command{Name: name, FolderName: folder}, nil

	case DeletePost:
		title := unquote(args)
		if title == "" {
			return nil, &UsageError{Usage: "Формат: /delete_post <заголовок поста>"}
		}
		return &Command{Name: name, PostTitle: title}, nil

	case FindUser:
		if args == "" {
			return nil, &UsageError{Usage: "Формат: /find_user <ім'я, username або телефон>"}
		}
		return &Command{Name: name, Query: args}, nil

	case SendToUser:
		id, msg, _ := strings.Cut(args, " ")
		msg = strings.TrimSpace(msg)
		if id == "" || msg == "" {
			return nil, &UsageError{Usage: "Формат: /send_to_user <ID або телефон> <текст>"}
		}
		return &Command{Name: name, Identifier: id, Text: msg}, nil

	case SendSegment:
		ids, msg := splitIdentifiers(args)
		if len(ids) == 0 || msg == "" {
			return nil, &UsageError{Usage: "Формат: /send_segment <ID1> <ID2> ... <текст>"}
		}
		return &Command{Name: name, Identifiers: ids, Text: msg}, nil

	case DeleteSegment:
		ids, rest := splitIdentifiers(args)
		if len(ids) == 0 || rest != "" {
			return nil, &UsageError{Usage: "Формат: /delete_segment <ID1> <ID2> ..."}
		}
		return &Command{Name: name, Identifiers: ids}, nil
	}
	return nil, ErrUnknown
}

// splitIdentifiers consumes leading identifier-looking tokens and
// returns the rest of args verbatim.
func splitIdentifiers(args string) (ids []string, rest string) {
	rest = args
	for rest != "" {
		token, tail, _ := strings.Cut(rest, " ")
		if !IsIdentifier(token) {
			break
		}
		ids = append(ids, token)
		rest = strings.TrimSpace(tail)
	}
	return ids, rest
}

// IsIdentifier reports whether token looks like a user id or a phone
// number: digits with an optional leading plus, long enough to never
// collide with ordinary message words.
func IsIdentifier(token string) bool {
	digits := strings.TrimPrefix(token, "+")
	if len(digits) < 6 {
		return false
	}
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// unquote strips one layer of surrounding quotes, tolerating both
// straight quotes and «».
func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"«", "»"}, {"'", "'"}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) && len(s) > len(pair[0])+len(pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}
