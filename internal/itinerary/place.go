package itinerary

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is an external point-of-interest record. The engine only inspects
// its category tags; everything else is carried through to the optimizer
// and the UI unchanged.
type Place struct {
	ID       string   `json:"place_id"`
	Name     string   `json:"name"`
	Types    []string `json:"types,omitempty"`
	Location Location `json:"location"`
	Rating   float64  `json:"rating,omitempty"`
	Vicinity string   `json:"vicinity,omitempty"`
}

// Category classifies a place for duration defaults and display colour.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryAttraction Category = "attraction"
	CategoryHotel      Category = "hotel"
	CategoryOther      Category = "default"
)

// Default visit durations in minutes.
const (
	RestaurantVisitMinutes = 90
	DefaultVisitMinutes    = 120
)

// Category returns the place's category. Lodging wins over attraction,
// which wins over restaurant.
func (p *Place) Category() Category {
	if p == nil {
		return CategoryOther
	}
	switch {
	case p.hasType("lodging"):
		return CategoryHotel
	case p.hasType("tourist_attraction"):
		return CategoryAttraction
	case p.hasType("restaurant"):
		return CategoryRestaurant
	default:
		return CategoryOther
	}
}

// IsRestaurant reports whether the place is tagged as a restaurant.
func (p *Place) IsRestaurant() bool {
	return p != nil && p.hasType("restaurant")
}

// VisitMinutes is the fixed duration used when a visit is moved by hand.
func (p *Place) VisitMinutes() int {
	if p.IsRestaurant() {
		return RestaurantVisitMinutes
	}
	return DefaultVisitMinutes
}

func (p *Place) hasType(t string) bool {
	for _, candidate := range p.Types {
		if candidate == t {
			return true
		}
	}
	return false
}

// Palette holds the fill and border colours for a category.
type Palette struct {
	Background string `json:"background"`
	Border     string `json:"border"`
}

// Palette returns the display colours for the category.
func (c Category) Palette() Palette {
	switch c {
	case CategoryRestaurant:
		return Palette{Background: "#FF9800", Border: "#F57C00"}
	case CategoryAttraction:
		return Palette{Background: "#4CAF50", Border: "#388E3C"}
	case CategoryHotel:
		return Palette{Background: "#2196F3", Border: "#1976D2"}
	default:
		return Palette{Background: "#9C27B0", Border: "#7B1FA2"}
	}
}
