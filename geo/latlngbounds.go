package geo

// LatLngBounds represents a geographic rectangle spanning from a
// south-west to a north-east corner. Like Bounds, the zero value is empty
// and is grown with Extend.
type LatLngBounds struct {
	SouthWest LatLng
	NorthEast LatLng
	valid     bool
}

// NewLatLngBounds creates a geographic rectangle from two corners, in any
// order
func NewLatLngBounds(a, b LatLng) LatLngBounds {
	var bounds LatLngBounds
	bounds = bounds.Extend(a)
	bounds = bounds.Extend(b)
	return bounds
}

// IsValid reports whether the rectangle contains at least one coordinate
func (b LatLngBounds) IsValid() bool {
	return b.valid
}

// Extend returns bounds grown to contain the given coordinate
func (b LatLngBounds) Extend(ll LatLng) LatLngBounds {
	if !b.valid {
		return LatLngBounds{SouthWest: ll, NorthEast: ll, valid: true}
	}
	out := b
	if ll.Lat < out.SouthWest.Lat {
		out.SouthWest.Lat = ll.Lat
	}
	if ll.Lat > out.NorthEast.Lat {
		out.NorthEast.Lat = ll.Lat
	}
	if ll.Lng < out.SouthWest.Lng {
		out.SouthWest.Lng = ll.Lng
	}
	if ll.Lng > out.NorthEast.Lng {
		out.NorthEast.Lng = ll.Lng
	}
	return out
}

// ExtendBounds returns bounds grown to contain another geographic
// rectangle
func (b LatLngBounds) ExtendBounds(other LatLngBounds) LatLngBounds {
	if !other.valid {
		return b
	}
	return b.Extend(other.SouthWest).Extend(other.NorthEast)
}

// Center returns the center coordinate of the rectangle
func (b LatLngBounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// South returns the southern latitude edge
func (b LatLngBounds) South() float64 { return b.SouthWest.Lat }

// North returns the northern latitude edge
func (b LatLngBounds) North() float64 { return b.NorthEast.Lat }

// West returns the western longitude edge
func (b LatLngBounds) West() float64 { return b.SouthWest.Lng }

// East returns the eastern longitude edge
func (b LatLngBounds) East() float64 { return b.NorthEast.Lng }

// NorthWest returns the north-west corner
func (b LatLngBounds) NorthWest() LatLng {
	return LatLng{Lat: b.North(), Lng: b.West()}
}

// SouthEast returns the south-east corner
func (b LatLngBounds) SouthEast() LatLng {
	return LatLng{Lat: b.South(), Lng: b.East()}
}

// Contains reports whether other lies entirely inside b
func (b LatLngBounds) Contains(other LatLngBounds) bool {
	return b.valid && other.valid &&
		other.SouthWest.Lat >= b.SouthWest.Lat &&
		other.NorthEast.Lat <= b.NorthEast.Lat &&
		other.SouthWest.Lng >= b.SouthWest.Lng &&
		other.NorthEast.Lng <= b.NorthEast.Lng
}

// ContainsLatLng reports whether the coordinate lies inside b (inclusive)
func (b LatLngBounds) ContainsLatLng(ll LatLng) bool {
	return b.valid &&
		ll.Lat >= b.SouthWest.Lat && ll.Lat <= b.NorthEast.Lat &&
		ll.Lng >= b.SouthWest.Lng && ll.Lng <= b.NorthEast.Lng
}

// Intersects reports whether the rectangles share at least one coordinate
func (b LatLngBounds) Intersects(other LatLngBounds) bool {
	return b.valid && other.valid &&
		other.NorthEast.Lat >= b.SouthWest.Lat &&
		other.SouthWest.Lat <= b.NorthEast.Lat &&
		other.NorthEast.Lng >= b.SouthWest.Lng &&
		other.SouthWest.Lng <= b.NorthEast.Lng
}

// Pad returns bounds grown by the given ratio of their size in each
// direction
func (b LatLngBounds) Pad(ratio float64) LatLngBounds {
	heightBuffer := (b.NorthEast.Lat - b.SouthWest.Lat) * ratio
	widthBuffer := (b.NorthEast.Lng - b.SouthWest.Lng) * ratio

	return LatLngBounds{
		SouthWest: LatLng{Lat: b.SouthWest.Lat - heightBuffer, Lng: b.SouthWest.Lng - widthBuffer},
		NorthEast: LatLng{Lat: b.NorthEast.Lat + heightBuffer, Lng: b.NorthEast.Lng + widthBuffer},
		valid:     b.valid,
	}
}

// Equals reports whether both rectangles have the same corners within a
// small margin
func (b LatLngBounds) Equals(other LatLngBounds) bool {
	if !b.valid || !other.valid {
		return b.valid == other.valid
	}
	return b.SouthWest.Equals(other.SouthWest) && b.NorthEast.Equals(other.NorthEast)
}
