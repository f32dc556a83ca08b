package main

import (
	"fmt"
	"os"
	"os/signal"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"rezid/player"
)

const (
	audioFormat     = sdl.AUDIO_S16LSB
	audioBufferSize = 4096
)

// playAudio queue-feeds the engine output into the default SDL audio
// device until interrupted.
func playAudio(p *player.Player, cfg *player.Config) error {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return err
	}
	defer sdl.Quit()

	channels := uint8(1)
	if cfg.Playback == player.Stereo {
		channels = 2
	}

	spec := &sdl.AudioSpec{
		Freq:     int32(cfg.Frequency),
		Format:   audioFormat,
		Channels: channels,
		Samples:  audioBufferSize,
	}
	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return err
	}
	defer sdl.CloseAudioDevice(dev)

	sdl.PauseAudioDevice(dev, false)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	buf := make([]int16, audioBufferSize*int(channels))
	// Bytes queued ahead of the device; two buffers of margin keep the
	// device fed without adding perceptible latency.
	highWater := uint32(len(buf)) * 2 * 2

	for {
		select {
		case <-sig:
			p.Stop()
			fmt.Fprintln(os.Stderr)
			return nil
		default:
		}

		if sdl.GetQueuedAudioSize(dev) > highWater {
			sdl.Delay(10)
			continue
		}

		n, err := p.Play(buf, len(buf))
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		raw := unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), n*2)
		if err := sdl.QueueAudio(dev, raw); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "\rTime: %02d:%02d.%01d",
			p.TimeMs()/60000, p.TimeMs()/1000%60, p.TimeMs()/100%10)
	}
}
