//go:build linux

package calls

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

// deviceMediaProvider captures camera and microphone via pion/mediadevices.
type deviceMediaProvider struct {
	logger *zap.SugaredLogger
}

func NewDeviceMediaProvider(logger *zap.SugaredLogger) MediaProvider {
	return &deviceMediaProvider{logger: logger}
}

func (p *deviceMediaProvider) Acquire(_ context.Context) ([]Track, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, fmt.Errorf("error creating vp8 encoder params: %w", err)
	}
	vpxParams.BitRate = 1_500_000

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("error creating opus encoder params: %w", err)
	}

	codecSelector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(_ *mediadevices.MediaTrackConstraints) {},
		Audio: func(_ *mediadevices.MediaTrackConstraints) {},
		Codec: codecSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("error capturing local media: %w", err)
	}

	var tracks []Track
	for _, track := range stream.GetTracks() {
		kind := TrackKindAudio
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			kind = TrackKindVideo
		}
		tracks = append(tracks, &deviceTrack{
			track:   track,
			kind:    kind,
			enabled: true,
		})
	}
	return tracks, nil
}

type deviceTrack struct {
	track mediadevices.Track
	kind  TrackKind

	mu      sync.Mutex
	enabled bool
}

func (t *deviceTrack) Kind() TrackKind {
	return t.kind
}

func (t *deviceTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *deviceTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *deviceTrack) Bind(pc *webrtc.PeerConnection) error {
	_, err := pc.AddTrack(t.track)
	return err
}

func (t *deviceTrack) Close() error {
	return t.track.Close()
}
