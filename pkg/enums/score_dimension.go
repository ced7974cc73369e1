package enums

import "fmt"

// ScoreDimension names the four axes of the composite health score. The
// declaration order is the fixed tie-break priority for weakest/strongest
// dimension selection.
type ScoreDimension string

const (
	ScoreDimensionService  ScoreDimension = "service"
	ScoreDimensionCost     ScoreDimension = "cost"
	ScoreDimensionCapital  ScoreDimension = "capital"
	ScoreDimensionDocument ScoreDimension = "document"
)

// ScoreDimensionPriority is the fixed ordering used for argmin/argmax ties.
var ScoreDimensionPriority = []ScoreDimension{
	ScoreDimensionService,
	ScoreDimensionCost,
	ScoreDimensionCapital,
	ScoreDimensionDocument,
}

// IsValid reports whether the dimension is recognized.
func (d ScoreDimension) IsValid() bool {
	for _, candidate := range ScoreDimensionPriority {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseScoreDimension converts raw input into a ScoreDimension.
func ParseScoreDimension(value string) (ScoreDimension, error) {
	for _, candidate := range ScoreDimensionPriority {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid score dimension %q", value)
}
