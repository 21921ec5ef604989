package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/door-pricing/internal/attr"
)

// ErrInvalidSelection is returned for a selection that cannot be resolved at
// all: no model code, a non-numeric dimension, or an unknown mirror state.
var ErrInvalidSelection = eris.New("invalid selection")

// MirrorState describes which sides of the door carry a mirror.
type MirrorState string

const (
	MirrorNone      MirrorState = "none"
	MirrorOneSide   MirrorState = "one_side"
	MirrorBothSides MirrorState = "both_sides"
)

var mirrorAliases = map[string]MirrorState{
	"":           MirrorNone,
	"none":       MirrorNone,
	"no":         MirrorNone,
	"one_side":   MirrorOneSide,
	"one-side":   MirrorOneSide,
	"one":        MirrorOneSide,
	"both_sides": MirrorBothSides,
	"both-sides": MirrorBothSides,
	"both":       MirrorBothSides,
	"two_sides":  MirrorBothSides,
}

// ParseMirrorState maps caller text onto a MirrorState.
func ParseMirrorState(s string) (MirrorState, bool) {
	m, ok := mirrorAliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// Selection is a validated, typed set of user choices. Only ModelCode is
// mandatory; an empty field leaves its dimension open.
type Selection struct {
	Style         string              `json:"style,omitempty"`
	ModelCode     string              `json:"model_code"`
	Finish        string              `json:"finish,omitempty"`
	Color         string              `json:"color,omitempty"`
	Width         decimal.NullDecimal `json:"width"`
	Height        decimal.NullDecimal `json:"height"`
	Filling       string              `json:"filling,omitempty"`
	EdgeID        string              `json:"edge_id,omitempty"`
	LimiterID     string              `json:"limiter_id,omitempty"`
	OptionIDs     []string            `json:"option_ids,omitempty"`
	HandleID      string              `json:"handle_id,omitempty"`
	HardwareKitID string              `json:"hardware_kit_id,omitempty"`
	Supplier      string              `json:"supplier,omitempty"`
	Reversible    bool                `json:"reversible,omitempty"`
	Mirror        MirrorState         `json:"mirror,omitempty"`
	Threshold     bool                `json:"threshold,omitempty"`
	Backplate     bool                `json:"backplate,omitempty"`
}

// Validate checks the structural requirements of a selection.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.ModelCode) == "" {
		return eris.Wrap(ErrInvalidSelection, "model code is required")
	}
	if s.Mirror != "" {
		if _, ok := ParseMirrorState(string(s.Mirror)); !ok {
			return eris.Wrapf(ErrInvalidSelection, "unknown mirror state %q", s.Mirror)
		}
	}
	return nil
}

// MirrorState returns the normalised mirror state; unset means none.
func (s Selection) MirrorState() MirrorState {
	m, ok := ParseMirrorState(string(s.Mirror))
	if !ok {
		return MirrorNone
	}
	return m
}

// Dimension is a caller-supplied numeric field kept as text until the
// selection is parsed. It accepts JSON/YAML numbers and strings.
type Dimension string

// UnmarshalJSON accepts a number, a string or null.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode dimension")
		}
		*d = Dimension(s)
		return nil
	}
	*d = Dimension(data)
	return nil
}

// UnmarshalYAML accepts any scalar.
func (d *Dimension) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return eris.Errorf("model: dimension must be a scalar, got kind %d", node.Kind)
	}
	if node.Tag == "!!null" {
		*d = ""
		return nil
	}
	*d = Dimension(node.Value)
	return nil
}

// SelectionInput is the raw selection payload as received from a caller.
type SelectionInput struct {
	Style         string    `json:"style,omitempty" yaml:"style,omitempty"`
	ModelCode     string    `json:"model_code" yaml:"model_code"`
	Finish        string    `json:"finish,omitempty" yaml:"finish,omitempty"`
	Color         string    `json:"color,omitempty" yaml:"color,omitempty"`
	Width         Dimension `json:"width,omitempty" yaml:"width,omitempty"`
	Height        Dimension `json:"height,omitempty" yaml:"height,omitempty"`
	Filling       string    `json:"filling,omitempty" yaml:"filling,omitempty"`
	EdgeID        string    `json:"edge_id,omitempty" yaml:"edge_id,omitempty"`
	LimiterID     string    `json:"limiter_id,omitempty" yaml:"limiter_id,omitempty"`
	OptionIDs     []string  `json:"option_ids,omitempty" yaml:"option_ids,omitempty"`
	HandleID      string    `json:"handle_id,omitempty" yaml:"handle_id,omitempty"`
	HardwareKitID string    `json:"hardware_kit_id,omitempty" yaml:"hardware_kit_id,omitempty"`
	Supplier      string    `json:"supplier,omitempty" yaml:"supplier,omitempty"`
	Reversible    bool      `json:"reversible,omitempty" yaml:"reversible,omitempty"`
	Mirror        string    `json:"mirror,omitempty" yaml:"mirror,omitempty"`
	Threshold     bool      `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Backplate     bool      `json:"backplate,omitempty" yaml:"backplate,omitempty"`
}

// ParseSelection validates raw input and converts it to a Selection. It fails
// fast with ErrInvalidSelection; nothing is silently defaulted.
func ParseSelection(in SelectionInput) (Selection, error) {
	sel := Selection{
		Style:         strings.TrimSpace(in.Style),
		ModelCode:     strings.TrimSpace(in.ModelCode),
		Finish:        strings.TrimSpace(in.Finish),
		Color:         strings.TrimSpace(in.Color),
		Filling:       strings.TrimSpace(in.Filling),
		EdgeID:        strings.TrimSpace(in.EdgeID),
		LimiterID:     strings.TrimSpace(in.LimiterID),
		HandleID:      strings.TrimSpace(in.HandleID),
		HardwareKitID: strings.TrimSpace(in.HardwareKitID),
		Supplier:      strings.TrimSpace(in.Supplier),
		Reversible:    in.Reversible,
		Threshold:     in.Threshold,
		Backplate:     in.Backplate,
	}
	if sel.ModelCode == "" {
		return Selection{}, eris.Wrap(ErrInvalidSelection, "model code is required")
	}

	for _, id := range in.OptionIDs {
		if id = strings.TrimSpace(id); id != "" {
			sel.OptionIDs = append(sel.OptionIDs, id)
		}
	}

	var err error
	if sel.Width, err = parseDimension("width", in.Width); err != nil {
		return Selection{}, err
	}
	if sel.Height, err = parseDimension("height", in.Height); err != nil {
		return Selection{}, err
	}

	mirror, ok := ParseMirrorState(in.Mirror)
	if !ok {
		return Selection{}, eris.Wrapf(ErrInvalidSelection, "unknown mirror state %q", in.Mirror)
	}
	sel.Mirror = mirror

	return sel, nil
}

func parseDimension(name string, d Dimension) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	v, ok := attr.ToNumber(s)
	if !ok {
		return decimal.NullDecimal{}, eris.Wrapf(ErrInvalidSelection, "%s %q is not a number", name, s)
	}
	return decimal.NewNullDecimal(v), nil
}
