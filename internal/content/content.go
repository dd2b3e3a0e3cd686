// Package content classifies an inbound message into exactly one
// variant instead of probing optional fields at every call site.
package content

import (
	"strings"
	"unicode/utf8"

	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

type Kind int

const (
	KindOther Kind = iota
	KindText
	KindPhoto
	KindVideo
	KindDocument
	KindPoll
	KindAudio
	KindVoice
	KindContact
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	case KindDocument:
		return "document"
	case KindPoll:
		return "poll"
	case KindAudio:
		return "audio"
	case KindVoice:
		return "voice"
	case KindContact:
		return "contact"
	default:
		return "other"
	}
}

// Broadcastable reports whether the kind is on the broadcast allow-list.
func (k Kind) Broadcastable() bool {
	switch k {
	case KindText, KindPhoto, KindVideo, KindDocument, KindPoll, KindAudio, KindVoice:
		return true
	default:
		return false
	}
}

const maxTitleLen = 100

// Content is the classified view of one message: its variant, the
// derived catalog title and the raw text a recipient filter could be
// extracted from (empty for media without a caption).
type Content struct {
	Kind       Kind
	Title      string
	FilterText string
}

// Detect classifies msg. Exactly one variant wins; text beats media,
// media kinds are mutually exclusive on the wire.
func Detect(msg *telegram.Message) Content {
	if msg == nil {
		return Content{Kind: KindOther, Title: "[Медіа-контент]"}
	}

	switch {
	case msg.Contact != nil:
		return Content{Kind: KindContact, Title: "[Контакт]"}
	case msg.Text != "":
		return Content{
			Kind:       KindText,
			Title:      Truncate(firstLine(msg.Text), maxTitleLen),
			FilterText: msg.Text,
		}
	case msg.Poll != nil:
		return Content{
			Kind:  KindPoll,
			Title: Truncate("ОПИТУВАННЯ: "+msg.Poll.Question, maxTitleLen),
		}
	case len(msg.Photo) > 0:
		return captioned(msg, KindPhoto, "[Фото]")
	case msg.Video != nil:
		return captioned(msg, KindVideo, "[Відео]")
	case msg.Document != nil:
		name := strings.TrimSpace(msg.Document.FileName)
		if name == "" {
			name = "файл"
		}
		return captioned(msg, KindDocument, "[Документ: "+name+"]")
	case msg.Audio != nil:
		name := strings.TrimSpace(msg.Audio.FileName)
		if name == "" {
			name = "трек"
		}
		return captioned(msg, KindAudio, "[Аудіо: "+name+"]")
	case msg.Voice != nil:
		return Content{Kind: KindVoice, Title: "[Голосове повідомлення]"}
	default:
		return Content{Kind: KindOther, Title: "[Медіа-контент]"}
	}
}

// captioned prefers the first caption line as title and falls back to
// the fixed type label.
func captioned(msg *telegram.Message, kind Kind, label string) Content {
	if strings.TrimSpace(msg.Caption) != "" {
		return Content{
			Kind:       kind,
			Title:      Truncate(firstLine(msg.Caption), maxTitleLen),
			FilterText: msg.Caption,
		}
	}
	return Content{Kind: kind, Title: Truncate(label, maxTitleLen)}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
