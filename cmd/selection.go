package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/door-pricing/internal/model"
)

// selectionFlags binds the door selection to command-line flags shared by
// quote, diagnose and options.
type selectionFlags struct {
	category string
	in       model.SelectionInput
	width    string
	height   string
	asJSON   bool
}

func (f *selectionFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.category, "category", "", "catalog category (default from config)")
	fl.StringVar(&f.in.ModelCode, "model", "", "model code (required)")
	fl.StringVar(&f.in.Style, "style", "", "style")
	fl.StringVar(&f.in.Finish, "finish", "", "finish")
	fl.StringVar(&f.in.Color, "color", "", "color")
	fl.StringVar(&f.width, "width", "", "door width")
	fl.StringVar(&f.height, "height", "", "door height")
	fl.StringVar(&f.in.Filling, "filling", "", "filling")
	fl.StringVar(&f.in.Supplier, "supplier", "", "supplier")
	fl.StringVar(&f.in.HardwareKitID, "kit", "", "hardware kit id")
	fl.StringVar(&f.in.HandleID, "handle", "", "handle id")
	fl.StringVar(&f.in.LimiterID, "limiter", "", "limiter id")
	fl.StringSliceVar(&f.in.OptionIDs, "option", nil, "option id (repeatable)")
	fl.StringVar(&f.in.EdgeID, "edge", "", "edge id")
	fl.StringVar(&f.in.Mirror, "mirror", "", "mirror: none, one_side or both_sides")
	fl.BoolVar(&f.in.Reversible, "reversible", false, "reverse the opening direction")
	fl.BoolVar(&f.in.Threshold, "threshold", false, "add a threshold")
	fl.BoolVar(&f.in.Backplate, "backplate", false, "add the handle backplate")
	fl.BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
}

func (f *selectionFlags) input() model.SelectionInput {
	in := f.in
	in.Width = model.Dimension(f.width)
	in.Height = model.Dimension(f.height)
	return in
}
