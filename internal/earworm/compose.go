package earworm

// marker pads the snippet on both sides so the lyrics stand out in the SMS.
const marker = "🎶🎵🎶"

// Compose builds the message body: marker, snippet, marker, then the
// shortened link on its own line. Total function; an empty snippet just
// yields a degenerate message.
func Compose(snippet, shortURL string) string {
	return marker + "\n" + snippet + "\n" + marker + "\n" + shortURL
}
