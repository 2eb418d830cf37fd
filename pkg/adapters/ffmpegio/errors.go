package ffmpegio

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("ffmpegio: ffmpeg not found")

	// ErrFFprobeNotFound is returned when no ffprobe executable can be located.
	ErrFFprobeNotFound = errors.New("ffmpegio: ffprobe not found")

	// ErrNoVideoStream is returned when a file has no video stream.
	ErrNoVideoStream = errors.New("ffmpegio: no video stream")

	// ErrClosed is returned when a reader or writer is used after Close.
	ErrClosed = errors.New("ffmpegio: already closed")
)
