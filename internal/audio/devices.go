package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio device PortAudio can open
type Device struct {
	Name                    string
	HostAPI                 string
	MaxInputChannels        int
	MaxOutputChannels       int
	DefaultSampleRate       float64
	DefaultLowInputLatency  time.Duration
	DefaultLowOutputLatency time.Duration
	DefaultInput            bool
	DefaultOutput           bool
}

// Usable reports whether the device can serve as a stereo input or output
func (d Device) Usable() bool {
	return d.MaxInputChannels >= Channels || d.MaxOutputChannels >= Channels
}

// ListDevices returns every device known to PortAudio
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	// Missing defaults are not an error; the flags just stay false
	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Name:                    info.Name,
			MaxInputChannels:        info.MaxInputChannels,
			MaxOutputChannels:       info.MaxOutputChannels,
			DefaultSampleRate:       info.DefaultSampleRate,
			DefaultLowInputLatency:  info.DefaultLowInputLatency,
			DefaultLowOutputLatency: info.DefaultLowOutputLatency,
			DefaultInput:            sameDevice(info, defIn),
			DefaultOutput:           sameDevice(info, defOut),
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}

	return devices, nil
}

func sameDevice(a, b *portaudio.DeviceInfo) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return a.Name == b.Name && a.HostApi == b.HostApi
}
