package ui

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"chipper/emu/log"
	"chipper/hw"
)

const (
	sampleRate      = 44100
	audioBufferSize = 1024

	// Don't queue more than this many bytes, so that the sound doesn't lag
	// behind the emulation (about 100ms).
	maxQueuedBytes = sampleRate / 10 * 2
)

type audio struct {
	dev  sdl.AudioDeviceID
	tone *hw.Tone
}

// openAudio opens the default audio output device. Must be called on the
// main thread.
func openAudio(toneHz, volume float64) (*audio, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL audio: %s", err)
	}

	want := sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_S16SYS,
		Channels: 1,
		Samples:  audioBufferSize,
	}
	var have sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %s", err)
	}
	sdl.PauseAudioDevice(dev, false)

	log.ModSound.InfoZ("Audio device opened").
		Int("freq", int(have.Freq)).
		Int("samples", int(have.Samples)).
		End()

	return &audio{
		dev:  dev,
		tone: hw.NewTone(sampleRate, toneHz, volume),
	}, nil
}

// play synthesizes and queues one frame of sound. Must be called on the main
// thread.
func (a *audio) play(on bool) {
	samples := a.tone.EndFrame(on)
	if len(samples) == 0 {
		return
	}
	if sdl.GetQueuedAudioSize(a.dev) > maxQueuedBytes {
		log.ModSound.DebugZ("audio queue full, dropping frame").End()
		return
	}

	// QueueAudio copies the samples.
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
	if err := sdl.QueueAudio(a.dev, buf); err != nil {
		log.ModSound.DebugZ("failed to queue audio buffer").Error("err", err).End()
	}
}

// reset drops the synthesizer state and the sound still queued on the
// device. Must be called on the main thread.
func (a *audio) reset() {
	a.tone.Reset()
	sdl.ClearQueuedAudio(a.dev)
}

func (a *audio) close() {
	sdl.CloseAudioDevice(a.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}
