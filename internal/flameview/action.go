package flameview

import (
	"fmt"

	"github.com/flamel/flamel/internal/flamechart"
)

// ActionType enumerates the user interactions a view reacts to.
type ActionType string

const (
	ActionHide        ActionType = "hide"
	ActionResetHidden ActionType = "reset_hidden"
	ActionZoom        ActionType = "zoom"
	ActionResetZoom   ActionType = "reset_zoom"
	ActionSearch      ActionType = "search"
	ActionClearSearch ActionType = "clear_search"
	ActionReset       ActionType = "reset"
)

// Action is one discrete user interaction. Zoom and hide address a frame by
// its stable key; search carries a pattern.
type Action struct {
	Type    ActionType           `json:"type"`
	Target  *flamechart.FrameKey `json:"target,omitempty"`
	Pattern string               `json:"pattern,omitempty"`
}

// Apply dispatches a single action against the view. Each action runs to
// completion before the next one is dispatched, so the ordering guarantee of
// the interaction model is enforced here rather than spread over handlers.
// Structurally invalid actions (unknown type, unresolvable target) are
// reported; a valid action never fails.
func (v *View) Apply(a Action) error {
	switch a.Type {
	case ActionHide:
		f, err := v.resolve(a)
		if err != nil {
			return err
		}
		v.HideSubtree(f)
	case ActionResetHidden:
		v.ResetHidden()
	case ActionZoom:
		f, err := v.resolve(a)
		if err != nil {
			return err
		}
		v.ZoomTo(f)
	case ActionResetZoom:
		v.ResetZoom()
	case ActionSearch:
		v.SetSearch(a.Pattern)
	case ActionClearSearch:
		v.ClearSearch()
	case ActionReset:
		v.ResetAll()
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

func (v *View) resolve(a Action) (flamechart.Frame, error) {
	if a.Target == nil {
		return flamechart.Frame{}, fmt.Errorf("%s action without a target", a.Type)
	}
	f, ok := v.frames[*a.Target]
	if !ok {
		return flamechart.Frame{}, fmt.Errorf("no frame at (%d, %d, %d)", a.Target.Start, a.Target.End, a.Target.Depth)
	}
	return f, nil
}
