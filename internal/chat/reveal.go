package chat

import (
	"context"
	"time"
)

// reveal emits growing prefixes of text, one rune per tick, ending with the
// full text. A non-positive interval emits the full text at once. A done
// context skips the rest of the animation; the full text is still emitted.
func reveal(ctx context.Context, text string, interval time.Duration, emit func(string)) {
	runes := []rune(text)
	if interval <= 0 || len(runes) == 0 {
		emit(text)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; i <= len(runes); i++ {
		select {
		case <-ctx.Done():
			emit(text)
			return
		case <-ticker.C:
			emit(string(runes[:i]))
		}
	}
}
