package playback

// Track identifies what a channel plays.
// This is a copy of the data, not a reference to the channel.
type Track struct {
	Locator    string
	Descriptor string // as written in the note or the configuration
	Document   string // note that configured it; empty for the fallback
}
