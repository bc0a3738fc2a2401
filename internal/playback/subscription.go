package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	ChannelChanged <-chan ChannelChange
	TrackChanged   <-chan TrackChange
	VolumeChanged  <-chan VolumeChange
	Error          <-chan ErrorEvent
	Done           <-chan struct{}

	// Internal write channels
	channelCh chan ChannelChange
	trackCh   chan TrackChange
	volumeCh  chan VolumeChange
	errorCh   chan ErrorEvent
	doneCh    chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		channelCh: make(chan ChannelChange, eventBufferSize),
		trackCh:   make(chan TrackChange, eventBufferSize),
		volumeCh:  make(chan VolumeChange, eventBufferSize),
		errorCh:   make(chan ErrorEvent, eventBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.ChannelChanged = s.channelCh
	s.TrackChanged = s.trackCh
	s.VolumeChanged = s.volumeCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendChannel sends a channel change event (non-blocking).
func (s *Subscription) sendChannel(e ChannelChange) {
	select {
	case s.channelCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendTrack sends a track change event (non-blocking).
func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

// sendVolume sends a volume change event (non-blocking).
func (s *Subscription) sendVolume(v float64) {
	select {
	case s.volumeCh <- VolumeChange{Volume: v}:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
