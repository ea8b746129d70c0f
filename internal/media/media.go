// Package media owns the capture-device contract. A device is acquired once
// per interview session and hands out exactly one recorder; strict phase
// sequencing upstream guarantees a recorder is never started twice without an
// intervening stop.
package media

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Clip is one finished recording.
type Clip struct {
	Data     []byte
	MimeType string
}

// Recorder captures one clip at a time from the session's device.
type Recorder interface {
	// Start begins capturing. Starting while already capturing is an error.
	Start(ctx context.Context) error
	// Stop finishes the in-flight capture and returns the clip.
	Stop(ctx context.Context) (Clip, error)
}

// Device is the camera/microphone handle held for the session lifetime.
type Device interface {
	// Acquire opens the device. A second acquire without Release is an error.
	Acquire(ctx context.Context) (Recorder, error)
	// Release closes the device and invalidates its recorder.
	Release()
}

// FileDevice is a capture device backed by a prerecorded media file. Every
// clip it produces is the file's contents; it exists for terminal-driven
// sessions and tests, where no real camera is available.
type FileDevice struct {
	path string
	mime string

	mu       sync.Mutex
	acquired bool
}

func NewFileDevice(path, mimeType string) *FileDevice {
	if mimeType == "" {
		mimeType = "video/webm"
	}
	return &FileDevice{path: path, mime: mimeType}
}

func (d *FileDevice) Acquire(_ context.Context) (Recorder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.acquired {
		return nil, fmt.Errorf("capture device already acquired")
	}
	if _, err := os.Stat(d.path); err != nil {
		return nil, fmt.Errorf("cannot access capture source: %w", err)
	}
	d.acquired = true
	return &fileRecorder{device: d}, nil
}

func (d *FileDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquired = false
}

type fileRecorder struct {
	device *FileDevice

	mu        sync.Mutex
	recording bool
}

func (r *fileRecorder) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return fmt.Errorf("recorder already started")
	}
	r.device.mu.Lock()
	acquired := r.device.acquired
	r.device.mu.Unlock()
	if !acquired {
		return fmt.Errorf("capture device released")
	}
	r.recording = true
	return nil
}

func (r *fileRecorder) Stop(_ context.Context) (Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return Clip{}, fmt.Errorf("recorder not started")
	}
	r.recording = false

	data, err := os.ReadFile(r.device.path)
	if err != nil {
		return Clip{}, fmt.Errorf("read capture source: %w", err)
	}
	return Clip{Data: data, MimeType: r.device.mime}, nil
}
