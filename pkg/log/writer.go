// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// 🧵 LineWriter turns a byte stream (typically a child process's stdout or
// stderr) into one zerolog event per line.
type LineWriter struct {
	zlog   zerolog.Logger
	level  zerolog.Level
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

// 🏭 NewLineWriter creates a writer that logs every line at level, tagged
// with the stream name.
func NewLineWriter(zlog zerolog.Logger, level zerolog.Level, stream string) *LineWriter {
	return &LineWriter{
		zlog:   zlog,
		level:  level,
		stream: stream,
	}
}

// Stdout returns a LineWriter for a child's standard output.
func (l *Logger) Stdout(script string) *LineWriter {
	return NewLineWriter(l.zlog.With().Str("script", script).Logger(), zerolog.InfoLevel, "stdout")
}

// Stderr returns a LineWriter for a child's standard error.
func (l *Logger) Stderr(script string) *LineWriter {
	return NewLineWriter(l.zlog.With().Str("script", script).Logger(), zerolog.WarnLevel, "stderr")
}

// Write implements io.Writer. Incomplete trailing lines are held until the
// next newline or Flush.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs whatever partial line is still buffered.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return
	}
	w.emit(w.buf.String())
	w.buf.Reset()
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.zlog.WithLevel(w.level).Str("stream", w.stream).Msg(line)
}
