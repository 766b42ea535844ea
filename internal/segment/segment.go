package segment

import (
	"fmt"

	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
)

// WindowSeconds is the provider's fixed danmaku accounting window (6 minutes)
const WindowSeconds = 360

// WholeName names the single segment used when no segment table is supplied
const WholeName = "video"

// Names of the report scopes that sit beside the segments; a segment may not take them
const (
	CommentsName = "comments"
	OverallName  = "overall"
)

func reserved(name string) bool {
	return name == CommentsName || name == OverallName
}

// Definition is one named time range on one sub-video (page) of the content
type Definition struct {
	Name         string
	PageIndex    int // 0-based
	StartSeconds int
	EndSeconds   int
	// HasRange is false when the source row carried no time range at all
	HasRange bool
}

// WindowRange is an inclusive range of provider window indices
type WindowRange struct {
	From int `json:"from_window"`
	To   int `json:"to_window"`
}

// Resolved pairs a definition with its window range. Window is nil when the range is
// undefined, which callers treat as "the whole track".
type Resolved struct {
	Definition
	Window *WindowRange
}

// SecondsRange is the exact [start, end) of a segment in seconds
type SecondsRange struct {
	Start int `json:"start_seconds"`
	End   int `json:"end_seconds"`
}

// Range returns the exact range behind the window, or nil for a whole-track segment
func (r Resolved) Range() *SecondsRange {
	if r.Window == nil {
		return nil
	}
	return &SecondsRange{Start: r.StartSeconds, End: r.EndSeconds}
}

// Contains reports whether a danmaku at progressMs falls inside the exact range.
// Windows are 6 minutes wide, so a fetched window can hold danmaku outside it.
func (r Resolved) Contains(progressMs int) bool {
	if r.Window == nil {
		return true
	}
	return progressMs >= r.StartSeconds*1000 && progressMs < r.EndSeconds*1000
}

// Rejection records why a segment or source row was not resolved into a window range
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Resolution is the resolver output, in input order
type Resolution struct {
	Segments   []Resolved
	Rejections []Rejection
}

// Lookup returns the resolved segment with the given name
func (r Resolution) Lookup(name string) (Resolved, bool) {
	for _, s := range r.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Resolved{}, false
}

// WindowFor maps a valid [start, end) second range onto window indices. The end bound uses
// end-1 so a range ending exactly on a window boundary does not pull in the next window.
func WindowFor(startSeconds, endSeconds int) (WindowRange, error) {
	if startSeconds < 0 {
		return WindowRange{}, fmt.Errorf("start %ds is negative", startSeconds)
	}
	if endSeconds <= startSeconds {
		return WindowRange{}, fmt.Errorf("end %ds must be greater than start %ds", endSeconds, startSeconds)
	}
	return WindowRange{
		From: startSeconds / WindowSeconds,
		To:   (endSeconds - 1) / WindowSeconds,
	}, nil
}

// Resolve maps every definition to its window range. Segments with an invalid range are
// kept with an undefined window and a recorded rejection; segments that cannot be
// addressed at all (no name, reserved name, negative page, duplicate name) are dropped. A bad entry
// never aborts the batch.
func Resolve(defs []Definition) Resolution {
	log := logger.ForResolver()

	var res Resolution
	seen := make(map[string]bool, len(defs))

	for i, def := range defs {
		unit := fmt.Sprintf("segment:%s", def.Name)

		switch {
		case def.Name == "":
			reject(&res, log, errors.NewValidation(fmt.Sprintf("segment#%d", i), "segment has no name"), "")
			continue
		case reserved(def.Name):
			reject(&res, log, errors.NewValidation(unit, "segment name is reserved for a report scope"), def.Name)
			continue
		case seen[def.Name]:
			reject(&res, log, errors.NewValidation(unit, "duplicate segment name, keeping the first"), def.Name)
			continue
		case def.PageIndex < 0:
			reject(&res, log, errors.NewValidation(unit, fmt.Sprintf("page index %d is negative", def.PageIndex)), def.Name)
			continue
		}
		seen[def.Name] = true

		resolved := Resolved{Definition: def}
		if def.HasRange {
			window, err := WindowFor(def.StartSeconds, def.EndSeconds)
			if err != nil {
				reject(&res, log, errors.NewParse(unit, "invalid time range, falling back to the whole track", err), def.Name)
			} else {
				resolved.Window = &window
			}
		}
		res.Segments = append(res.Segments, resolved)
	}

	log.Debug().
		Int("segments", len(res.Segments)).
		Int("rejections", len(res.Rejections)).
		Msg("Resolved segment windows")

	return res
}

func reject(res *Resolution, log *logger.Logger, err *errors.PipelineError, name string) {
	log.Warn().Err(err).Str("segment", name).Msg("Segment rejected")
	reason := err.Message
	if err.Err != nil {
		reason = fmt.Sprintf("%s: %v", err.Message, err.Err)
	}
	res.Rejections = append(res.Rejections, Rejection{Name: name, Reason: reason})
}

// Whole returns the single whole-video definition used when no segment table is supplied
func Whole() []Definition {
	return []Definition{{Name: WholeName, PageIndex: 0}}
}
