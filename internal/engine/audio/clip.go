package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"
)

// Clip is decoded audio held in memory.
type Clip struct {
	name   string
	buffer *beep.Buffer
}

// NewClip wraps an already filled buffer.
func NewClip(name string, buffer *beep.Buffer) *Clip {
	return &Clip{name: name, buffer: buffer}
}

// Name returns the clip name.
func (c *Clip) Name() string {
	return c.name
}

// Length returns the clip duration in seconds.
func (c *Clip) Length() float64 {
	return c.buffer.Format().SampleRate.D(c.buffer.Len()).Seconds()
}

// Format returns the sample format of the clip.
func (c *Clip) Format() beep.Format {
	return c.buffer.Format()
}

// LoadClip decodes WAV data from r and resamples it to the manager rate.
func (m *Manager) LoadClip(r io.Reader, name string) (*Clip, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", name, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != m.sampleRate {
		src = beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
	}

	buffer := beep.NewBuffer(beep.Format{
		SampleRate:  m.sampleRate,
		NumChannels: format.NumChannels,
		Precision:   format.Precision,
	})
	buffer.Append(src)

	m.log.Debug("clip loaded",
		zap.String("name", name),
		zap.Float64("seconds", m.sampleRate.D(buffer.Len()).Seconds()),
	)
	return NewClip(name, buffer), nil
}

// LoadClipFile loads a WAV file. The clip is named after the file.
func (m *Manager) LoadClipFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()
	return m.LoadClip(f, filepath.Base(path))
}
