package destination

import "strings"

type Destination struct {
	Name string
}

func (d Destination) Code() string {
	return d.Name
}

func (d Destination) Label() string {
	if len(d.Name) == 0 {
		return ""
	}
	return strings.ToUpper(d.Name[:1]) + d.Name[1:]
}

type Enum struct {
	Kitchen Destination
	Bar     Destination
	// Prep is a deprecated alias for Kitchen still present in older
	// order data. Normalize folds it into Kitchen.
	Prep Destination
}

var Destinations = Enum{
	Kitchen: Destination{Name: "kitchen"},
	Bar:     Destination{Name: "bar"},
	Prep:    Destination{Name: "prep"},
}

var All = []Destination{
	Destinations.Kitchen,
	Destinations.Bar,
	Destinations.Prep,
}

// ByName returns the destination for a given name, or nil if not found
func ByName(name string) *Destination {
	for _, d := range All {
		if d.Name == name {
			return &d
		}
	}
	return nil
}

// Normalize maps a raw destination code to the code used for threshold
// and sound lookups. The deprecated "prep" value and anything unknown
// fall back to "kitchen".
func Normalize(code string) string {
	switch code {
	case Destinations.Bar.Code():
		return Destinations.Bar.Code()
	default:
		return Destinations.Kitchen.Code()
	}
}
