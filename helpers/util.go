package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseClock converts "SS", "MM:SS" or "HH:MM:SS" into seconds
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty clock value")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("too many fields in %q", s)
	}

	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock field %q in %q", p, s)
		}
		// minutes and seconds fields after the first must stay below 60
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("clock field %q out of range in %q", p, s)
		}
		total = total*60 + n
	}
	return total, nil
}

// ParseClockRange parses "start-end" where both sides are clock values
func ParseClockRange(s string) (int, int, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("missing '-' in range %q", s)
	}
	from, err := ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	to, err := ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookieHeader reads a JSON cookie dump ([{"name":..,"value":..}, ...]) as saved by a
// browser login and renders it as a Cookie header value.
func LoadCookieHeader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read cookie file: %w", err)
	}

	var cookies []storedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return "", fmt.Errorf("parse cookie file: %w", err)
	}

	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}
