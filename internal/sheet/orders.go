package sheet

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/door-pricing/internal/model"
)

// ReadOrderLines reads a YAML list of order lines.
func ReadOrderLines(path string) ([]model.OrderLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "orders: read %s", path)
	}

	var lines []model.OrderLine
	if err := yaml.Unmarshal(data, &lines); err != nil {
		return nil, eris.Wrapf(err, "orders: parse %s", path)
	}
	for i, l := range lines {
		if l.Ref == "" {
			return nil, eris.Errorf("orders: line %d has no ref", i+1)
		}
	}
	return lines, nil
}
