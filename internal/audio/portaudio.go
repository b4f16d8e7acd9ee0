package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioConfig selects devices and stream parameters
type PortAudioConfig struct {
	Name            string  // client name used in notifications
	SampleRate      float64 // 0 uses the device default
	FramesPerBuffer int     // 0 lets PortAudio choose and vary the block size
	InputDevice     string  // empty selects the default input device
	OutputDevice    string  // empty selects the default output device
	LowLatency      bool
}

// PortAudioEngine runs a Processor on a full-duplex stereo PortAudio stream
type PortAudioEngine struct {
	cfg       PortAudioConfig
	processor Processor
	notifier  Notifier

	mu        sync.Mutex
	isRunning bool
	stream    *portaudio.Stream
	params    portaudio.StreamParameters
	rate      float64
	events    *eventQueue

	// callback side only
	threadStarted bool
	lastFrames    int
}

// NewPortAudioEngine initialises PortAudio and creates an engine for p
func NewPortAudioEngine(cfg PortAudioConfig, p Processor, n Notifier) (*PortAudioEngine, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	if n == nil {
		n = NopNotifier{}
	}

	return &PortAudioEngine{
		cfg:       cfg,
		processor: p,
		notifier:  n,
	}, nil
}

// Start opens and starts the stream
func (e *PortAudioEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isRunning {
		return ErrAlreadyRunning
	}

	params, err := e.streamParameters()
	if err != nil {
		return err
	}

	e.threadStarted = false
	e.lastFrames = 0
	e.events = newEventQueue(64)
	go e.events.run(e.notifier)

	stream, err := portaudio.OpenStream(params, e.processAudio)
	if err != nil {
		e.events.close()
		return fmt.Errorf("open stream: %w", err)
	}

	e.notifier.ClientRegistration(e.cfg.Name, true)
	for _, port := range portNames {
		e.notifier.PortRegistration(port, true)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		e.events.close()
		return fmt.Errorf("start stream: %w", err)
	}

	e.stream = stream
	e.params = params
	e.rate = params.SampleRate
	e.isRunning = true

	e.notifier.PortsConnected(params.Input.Device.Name, PortInLeft, true)
	e.notifier.PortsConnected(params.Input.Device.Name, PortInRight, true)
	e.notifier.PortsConnected(PortOutLeft, params.Output.Device.Name, true)
	e.notifier.PortsConnected(PortOutRight, params.Output.Device.Name, true)

	if info := stream.Info(); info != nil {
		e.rate = info.SampleRate
		e.notifier.SampleRate(info.SampleRate)
		e.notifier.Latency(CaptureLatency, info.InputLatency)
		e.notifier.Latency(PlaybackLatency, info.OutputLatency)
	}

	return nil
}

// Stop stops and closes the stream and terminates PortAudio
func (e *PortAudioEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isRunning {
		return ErrNotRunning
	}
	e.isRunning = false

	stopErr := e.stream.Stop()
	closeErr := e.stream.Close()

	// No more callbacks, so nothing can post any longer
	e.events.close()

	e.notifier.PortsConnected(e.params.Input.Device.Name, PortInLeft, false)
	e.notifier.PortsConnected(e.params.Input.Device.Name, PortInRight, false)
	e.notifier.PortsConnected(PortOutLeft, e.params.Output.Device.Name, false)
	e.notifier.PortsConnected(PortOutRight, e.params.Output.Device.Name, false)
	for _, port := range portNames {
		e.notifier.PortRegistration(port, false)
	}
	e.notifier.ClientRegistration(e.cfg.Name, false)
	e.notifier.Shutdown("deactivated")

	termErr := portaudio.Terminate()

	if stopErr != nil {
		return fmt.Errorf("stop stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close stream: %w", closeErr)
	}
	if termErr != nil {
		return fmt.Errorf("terminate portaudio: %w", termErr)
	}
	return nil
}

// IsRunning returns true if the stream is active
func (e *PortAudioEngine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isRunning
}

// SampleRate returns the stream's actual sample rate once started
func (e *PortAudioEngine) SampleRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rate > 0 {
		return e.rate
	}
	return e.cfg.SampleRate
}

// processAudio is the callback function for audio processing
func (e *PortAudioEngine) processAudio(in, out [][]float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if !e.threadStarted {
		e.threadStarted = true
		e.events.post(event{kind: eventThreadInit})
	}

	if len(out) > 0 && len(out[0]) != e.lastFrames {
		e.lastFrames = len(out[0])
		e.events.post(event{kind: eventBufferSize, frames: e.lastFrames})
	}

	if flags != 0 {
		e.postXruns(flags)
	}

	if len(in) < Channels || len(out) < Channels {
		for _, ch := range out {
			clear(ch)
		}
		return
	}

	e.processor.Process(in[0], in[1], out[0], out[1])
}

func (e *PortAudioEngine) postXruns(flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.InputUnderflow != 0 {
		e.events.post(event{kind: eventXrun, xrun: InputUnderflow})
	}
	if flags&portaudio.InputOverflow != 0 {
		e.events.post(event{kind: eventXrun, xrun: InputOverflow})
	}
	if flags&portaudio.OutputUnderflow != 0 {
		e.events.post(event{kind: eventXrun, xrun: OutputUnderflow})
	}
	if flags&portaudio.OutputOverflow != 0 {
		e.events.post(event{kind: eventXrun, xrun: OutputOverflow})
	}
}

// streamParameters resolves the configured devices into duplex stereo
// stream parameters
func (e *PortAudioEngine) streamParameters() (portaudio.StreamParameters, error) {
	in, err := findDevice(e.cfg.InputDevice, true)
	if err != nil {
		return portaudio.StreamParameters{}, err
	}
	out, err := findDevice(e.cfg.OutputDevice, false)
	if err != nil {
		return portaudio.StreamParameters{}, err
	}

	if in.MaxInputChannels < Channels {
		return portaudio.StreamParameters{}, fmt.Errorf("%w: %q has %d inputs", ErrTooFewChannels, in.Name, in.MaxInputChannels)
	}
	if out.MaxOutputChannels < Channels {
		return portaudio.StreamParameters{}, fmt.Errorf("%w: %q has %d outputs", ErrTooFewChannels, out.Name, out.MaxOutputChannels)
	}

	var params portaudio.StreamParameters
	if e.cfg.LowLatency {
		params = portaudio.LowLatencyParameters(in, out)
	} else {
		params = portaudio.HighLatencyParameters(in, out)
	}
	params.Input.Channels = Channels
	params.Output.Channels = Channels
	if e.cfg.SampleRate > 0 {
		params.SampleRate = e.cfg.SampleRate
	}
	if e.cfg.FramesPerBuffer > 0 {
		params.FramesPerBuffer = e.cfg.FramesPerBuffer
	}

	return params, nil
}

// findDevice returns the named device, or the default one when name is empty
func findDevice(name string, input bool) (*portaudio.DeviceInfo, error) {
	if name == "" {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
