// Package outbound splits and delivers text to recipients.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/emilwagman/Ambient-AI/pkg/logger"
)

// MaxMessageLength is the platform limit for one message, in characters.
const MaxMessageLength = 4096

// ErrDeliveryFailed wraps any failed delivery.
var ErrDeliveryFailed = errors.New("delivery failed")

// Deliverer sends one message piece to one recipient. Pieces are at most
// MaxMessageLength characters.
type Deliverer interface {
	Deliver(ctx context.Context, recipientID int64, text string) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, recipientID int64, text string) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, recipientID int64, text string) error {
	return f(ctx, recipientID, text)
}

// Split breaks text into pieces of at most limit characters. Each cut is
// made at the last paragraph break inside the limit, else after the last
// sentence-ending ". ", else at the last newline, else hard at the limit.
// Whitespace is trimmed on both sides of every cut and empty pieces are
// dropped. A non-positive limit means MaxMessageLength.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var pieces []string
	rest := strings.TrimSpace(text)
	for rest != "" {
		if utf8.RuneCountInString(rest) <= limit {
			pieces = append(pieces, rest)
			break
		}

		window := rest[:byteOffset(rest, limit)]
		cut := cutPoint(window)

		piece := strings.TrimRightFunc(rest[:cut], unicode.IsSpace)
		rest = strings.TrimLeftFunc(rest[cut:], unicode.IsSpace)
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

func cutPoint(window string) int {
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i
	}
	if i := strings.LastIndex(window, ". "); i >= 0 {
		return i + 1
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return i
	}
	return len(window)
}

// byteOffset returns the byte index just past the first n runes of s.
func byteOffset(s string, n int) int {
	i := 0
	for range n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// Send splits text and delivers the pieces to one recipient in order. It
// stops at the first failed piece.
func Send(ctx context.Context, d Deliverer, recipientID int64, text string) error {
	for i, piece := range Split(text, MaxMessageLength) {
		if err := d.Deliver(ctx, recipientID, piece); err != nil {
			return fmt.Errorf("%w: recipient %d piece %d: %w", ErrDeliveryFailed, recipientID, i+1, err)
		}
	}
	return nil
}

// Broadcast sends text to every recipient. A failure for one recipient is
// logged and does not affect the others. It returns the number of
// recipients that received the whole message.
func Broadcast(ctx context.Context, d Deliverer, recipients []int64, text string, log *slog.Logger) int {
	if log == nil {
		log = logger.Nop()
	}

	delivered := 0
	for _, id := range recipients {
		if err := sendIsolated(ctx, d, id, text); err != nil {
			log.Error("delivery failed", "user_id", id, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

func sendIsolated(ctx context.Context, d Deliverer, recipientID int64, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: recipient %d: panic: %v", ErrDeliveryFailed, recipientID, r)
		}
	}()
	return Send(ctx, d, recipientID, text)
}
