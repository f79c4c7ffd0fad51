// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package monitoring

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// TeeToFile copies the standard logger's output into a size-rotated file at
// path, keeping stderr. Closing the result closes the file; the standard
// logger keeps writing to stderr only.
func TeeToFile(path string) io.Closer {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return closerFunc(func() error {
		log.SetOutput(os.Stderr)
		return file.Close()
	})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
