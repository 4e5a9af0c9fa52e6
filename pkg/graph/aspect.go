package graph

// DefaultAspectRatio is used when an image node has none set.
const DefaultAspectRatio = "1:1"

// AspectRatios lists the ratios an image node may request, in menu order.
var AspectRatios = []string{
	"1:1", "9:16", "16:9", "3:4", "4:3", "3:2", "2:3", "5:4", "4:5", "21:9",
}

// ValidAspectRatio reports whether r is one of AspectRatios.
func ValidAspectRatio(r string) bool {
	for _, a := range AspectRatios {
		if a == r {
			return true
		}
	}
	return false
}

// EffectiveAspectRatio returns the node's ratio, or the default when unset.
func (d *ImageGenData) EffectiveAspectRatio() string {
	if d.AspectRatio == "" {
		return DefaultAspectRatio
	}
	return d.AspectRatio
}
