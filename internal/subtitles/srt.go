package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// ParseSRT reads SubRip captions. Cue numbers are ignored and multi-line
// texts are joined with "\n".
func ParseSRT(r io.Reader) ([]collection.SubtitleEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []collection.SubtitleEntry
		current *collection.SubtitleEntry
		text    []string
		line    int
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(text, "\n")
			entries = append(entries, *current)
		}
		current = nil
		text = nil
	}

	for scanner.Scan() {
		line++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if line == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			flush()
		case current == nil && strings.Contains(trimmed, "-->"):
			start, end, err := parseTiming(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			current = &collection.SubtitleEntry{StartMillis: start, EndMillis: end}
		case current == nil:
			// cue number
		default:
			text = append(text, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()
	return entries, nil
}

func parseTiming(value string) (int64, int64, error) {
	parts := strings.SplitN(value, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing %q", value)
	}
	start, err := parseSRTTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// Strip position hints such as "X1:40 X2:600".
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("invalid timing %q", value)
	}
	end, err := parseSRTTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("timing %q ends before it starts", value)
	}
	return start, end, nil
}

// parseSRTTimestamp converts "HH:MM:SS,mmm" to milliseconds.
func parseSRTTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return int64(hours*3600+minutes*60+seconds)*1000 + int64(millis), nil
}
