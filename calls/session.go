package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/signaling"
)

// Session establishes exactly one peer media connection per lifetime. All
// failures funnel through the OnError callback once; the session does not
// retry.
type Session struct {
	sessionId   string
	selfId      string
	role        Role
	relay       signaling.Relay
	media       MediaProvider
	stunServers []string
	logger      *zap.SugaredLogger

	onError       func(error)
	onStateChange func(State)
	onRemoteTrack func(*webrtc.TrackRemote, *webrtc.RTPReceiver)

	errOnce sync.Once

	mu        sync.Mutex
	ctx       context.Context
	state     State
	started   bool
	closed    bool
	answered  bool
	pc        *webrtc.PeerConnection
	tracks    []Track
	cancelSub func()
	exchanged []signaling.Message
}

type SessionParams struct {
	SessionId   string
	SelfId      string
	Role        Role
	Relay       signaling.Relay
	Media       MediaProvider
	StunServers []string
	Logger      *zap.SugaredLogger

	OnError       func(error)
	OnStateChange func(State)
	OnRemoteTrack func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
}

func NewSession(p SessionParams) *Session {
	return &Session{
		sessionId:     p.SessionId,
		selfId:        p.SelfId,
		role:          p.Role,
		relay:         p.Relay,
		media:         p.Media,
		stunServers:   p.StunServers,
		logger:        p.Logger,
		onError:       p.OnError,
		onStateChange: p.OnStateChange,
		onRemoteTrack: p.OnRemoteTrack,
		state:         StateDisconnected,
	}
}

// Setup acquires local media, builds the peer connection and subscribes to
// the signaling relay. The caller role sends an offer immediately, the
// callee waits for one. Runs at most once per session.
func (s *Session) Setup(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadySetUp
	}
	s.started = true
	s.ctx = ctx
	s.mu.Unlock()

	tracks, err := s.media.Acquire(ctx)
	if err != nil {
		err = fmt.Errorf("error acquiring local media: %w", err)
		s.fail(err)
		return err
	}

	iceServers := make([]webrtc.ICEServer, 0, len(s.stunServers))
	for _, url := range s.stunServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{url}})
	}
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		closeTracks(tracks)
		err = fmt.Errorf("error creating peer connection: %w", err)
		s.fail(err)
		return err
	}

	for _, track := range tracks {
		if err := track.Bind(pc); err != nil {
			s.logger.Errorw("error binding local track",
				"sessionId", s.sessionId, "kind", track.Kind(), "error", err)
		}
	}
	if len(tracks) == 0 {
		addRecvOnlyTransceivers(pc, s.logger)
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		payload, err := json.Marshal(candidate.ToJSON())
		if err != nil {
			s.logger.Errorw("error encoding ice candidate", "sessionId", s.sessionId, "error", err)
			return
		}
		s.send(signaling.MessageTypeCandidate, payload)
	})
	pc.OnConnectionStateChange(func(connectionState webrtc.PeerConnectionState) {
		switch connectionState {
		case webrtc.PeerConnectionStateConnected:
			s.setState(StateConnected)
		case webrtc.PeerConnectionStateFailed:
			s.fail(errors.New("peer connection failed"))
		case webrtc.PeerConnectionStateClosed:
			s.setState(StateDisconnected)
		}
	})
	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		if s.onRemoteTrack != nil {
			s.onRemoteTrack(track, receiver)
		}
	})

	messages, cancel, err := s.relay.Subscribe(ctx, s.sessionId)
	if err != nil {
		closeTracks(tracks)
		_ = pc.Close()
		err = fmt.Errorf("error subscribing to signaling relay: %w", err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		closeTracks(tracks)
		_ = pc.Close()
		return ErrSessionClosed
	}
	s.pc = pc
	s.tracks = tracks
	s.cancelSub = cancel
	s.state = StateConnecting
	s.mu.Unlock()
	s.notifyState(StateConnecting)

	go func() {
		for message := range messages {
			s.handleMessage(message)
		}
	}()

	if s.role == RoleCaller {
		if err := s.sendOffer(pc); err != nil {
			s.fail(err)
			return err
		}
	}
	return nil
}

func (s *Session) sendOffer(pc *webrtc.PeerConnection) error {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("error creating offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("error setting local description: %w", err)
	}
	payload, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("error encoding offer: %w", err)
	}
	s.send(signaling.MessageTypeOffer, payload)
	return nil
}

// handleMessage routes one relay message. Messages authored by this side are
// dropped; the relay echoes everything published for the session.
func (s *Session) handleMessage(message signaling.Message) {
	if message.From == s.selfId {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	pc := s.pc
	s.exchanged = append(s.exchanged, message)
	s.mu.Unlock()

	switch message.Type {
	case signaling.MessageTypeOffer:
		if s.role == RoleCaller {
			return
		}
		var offer webrtc.SessionDescription
		if err := json.Unmarshal(message.Payload, &offer); err != nil {
			s.fail(fmt.Errorf("error decoding offer: %w", err))
			return
		}
		if err := pc.SetRemoteDescription(offer); err != nil {
			s.fail(fmt.Errorf("error applying offer: %w", err))
			return
		}
		answer, err := pc.CreateAnswer(nil)
		if err != nil {
			s.fail(fmt.Errorf("error creating answer: %w", err))
			return
		}
		if err := pc.SetLocalDescription(answer); err != nil {
			s.fail(fmt.Errorf("error setting local description: %w", err))
			return
		}
		payload, err := json.Marshal(answer)
		if err != nil {
			s.fail(fmt.Errorf("error encoding answer: %w", err))
			return
		}
		s.send(signaling.MessageTypeAnswer, payload)

	case signaling.MessageTypeAnswer:
		s.mu.Lock()
		alreadyAnswered := s.answered
		s.answered = true
		s.mu.Unlock()
		if s.role != RoleCaller || alreadyAnswered {
			return
		}
		var answer webrtc.SessionDescription
		if err := json.Unmarshal(message.Payload, &answer); err != nil {
			s.fail(fmt.Errorf("error decoding answer: %w", err))
			return
		}
		if err := pc.SetRemoteDescription(answer); err != nil {
			s.fail(fmt.Errorf("error applying answer: %w", err))
		}

	case signaling.MessageTypeCandidate:
		var candidate webrtc.ICECandidateInit
		if err := json.Unmarshal(message.Payload, &candidate); err != nil {
			s.logger.Errorw("dropping malformed ice candidate", "sessionId", s.sessionId, "error", err)
			return
		}
		// Candidates trickle in and may be duplicated by the relay.
		if err := pc.AddICECandidate(candidate); err != nil {
			s.logger.Errorw("error adding ice candidate", "sessionId", s.sessionId, "error", err)
		}

	case signaling.MessageTypeHangup:
		s.Close()
	}
}

func (s *Session) send(messageType string, payload json.RawMessage) {
	message := signaling.Message{
		Type:    messageType,
		From:    s.selfId,
		Role:    string(s.role),
		Payload: payload,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.exchanged = append(s.exchanged, message)
	s.mu.Unlock()

	if err := s.relay.Publish(ctx, s.sessionId, message); err != nil {
		s.fail(fmt.Errorf("error publishing signaling message: %w", err))
	}
}

// ToggleMute flips every local audio track. Returns the new muted state.
func (s *Session) ToggleMute() bool {
	return s.toggle(TrackKindAudio)
}

// ToggleVideo flips every local video track. Returns the new disabled state.
func (s *Session) ToggleVideo() bool {
	return s.toggle(TrackKindVideo)
}

func (s *Session) toggle(kind TrackKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	disabled := false
	for _, track := range s.tracks {
		if track.Kind() != kind {
			continue
		}
		track.SetEnabled(!track.Enabled())
		disabled = !track.Enabled()
	}
	return disabled
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the signaling messages exchanged so far, sent and
// received, in arrival order.
func (s *Session) Messages() []signaling.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]signaling.Message, len(s.exchanged))
	copy(messages, s.exchanged)
	return messages
}

// Hangup notifies the remote side, then tears the session down.
func (s *Session) Hangup() {
	s.send(signaling.MessageTypeHangup, nil)
	s.Close()
}

// Close unsubscribes from the relay, closes the peer connection and stops
// all local tracks. Runs exactly once; later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateDisconnected
	cancel := s.cancelSub
	pc := s.pc
	tracks := s.tracks
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	closeTracks(tracks)
	if pc != nil {
		_ = pc.Close()
	}
	s.notifyState(StateDisconnected)
}

func (s *Session) fail(err error) {
	s.logger.Errorw("call session error", "sessionId", s.sessionId, "error", err)
	s.errOnce.Do(func() {
		if s.onError != nil {
			s.onError(err)
		}
	})
	s.Close()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if s.closed || s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.notifyState(state)
}

func (s *Session) notifyState(state State) {
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}

func closeTracks(tracks []Track) {
	for _, track := range tracks {
		_ = track.Close()
	}
}

// addRecvOnlyTransceivers keeps offers and answers valid when no local media
// could be captured, so the session can still receive remote tracks.
func addRecvOnlyTransceivers(pc *webrtc.PeerConnection, logger *zap.SugaredLogger) {
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeVideo, webrtc.RTPCodecTypeAudio} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			logger.Errorw("error adding recvonly transceiver", "kind", kind, "error", err)
		}
	}
}
