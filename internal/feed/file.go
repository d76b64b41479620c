package feed

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"referral-attribution/internal/domain"
)

// FileSource reads swap events from a JSON-lines fixture file, one wire
// frame per line. Blank lines and # comments are skipped. It backs
// offline runs and replays.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ReadAll loads every event in the file.
func (s *FileSource) ReadAll(ctx context.Context) ([]*domain.SwapEvent, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", s.path, err)
	}
	defer f.Close()

	var events []*domain.SwapEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ev, err := decodeEvent([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", s.path, err)
	}
	return events, nil
}

// Subscribe streams the file's events and closes the channel when the
// file is exhausted.
func (s *FileSource) Subscribe(ctx context.Context) (<-chan *domain.SwapEvent, error) {
	events, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	eventsCh := make(chan *domain.SwapEvent)
	go func() {
		defer close(eventsCh)
		for _, ev := range events {
			select {
			case eventsCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return eventsCh, nil
}

var _ Source = (*FileSource)(nil)
