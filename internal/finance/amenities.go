package finance

import "strings"

// AmenityCategory is a group of amenities sharing one per-item dollar weight.
type AmenityCategory struct {
	Name   string   `json:"name" yaml:"name"`
	Weight float64  `json:"weight" yaml:"weight"`
	Items  []string `json:"items" yaml:"items"`
}

// Category names.
const (
	CategoryCore       = "Core Property"
	CategoryPremium    = "Premium Interior"
	CategoryOutdoor    = "Outdoor"
	CategoryLocation   = "Location"
	CategoryPetFamily  = "Pet & Family"
	CategoryBusiness   = "Business"
	CategorySafety     = "Safety & Convenience"
	CategoryExperience = "Experience & Luxury"
)

var catalog = []AmenityCategory{
	{
		Name:   CategoryCore,
		Weight: 2000,
		Items: []string{
			"Full Kitchen", "Living Room", "Dining Area", "Private Entrance",
			"Dedicated Parking", "Air Conditioning", "Heating", "Wi-Fi",
			"Smart TV", "Washer/Dryer", "Iron & Board", "Hair Dryer",
			"Closet", "Workspace",
		},
	},
	{
		Name:   CategoryPremium,
		Weight: 8000,
		Items: []string{
			"Fireplace", "Indoor Hot Tub", "Jacuzzi", "Sauna",
			"Home Theater", "Smart Home", "Soundproofing", "Luxury Linens",
			"Walk-in Closet", "Rain Shower", "Soaking Tub", "Game Room",
			"Pool Table", "Home Gym", "Wine Fridge", "Espresso Machine",
			"Air Purifier", "Security System",
		},
	},
	{
		Name:   CategoryOutdoor,
		Weight: 12000,
		Items: []string{
			"Private Pool", "Heated Pool", "Outdoor Hot Tub", "Fire Pit",
			"BBQ Grill", "Patio/Deck", "Outdoor Dining", "Lounge Chairs",
			"Garden/Lawn", "Mountain View", "Water View", "City View",
			"Balcony", "Outdoor Kitchen", "Fenced Yard", "Boat Dock",
			"Rooftop Terrace", "Outdoor Shower",
		},
	},
	{
		Name:   CategoryLocation,
		Weight: 15000,
		Items: []string{
			"Walking to Downtown", "Beachfront", "Waterfront", "Mountain View",
			"Ski-in Ski-out", "Near Transit", "EV Charger", "Wheelchair Accessible",
			"Elevator", "Step-free Entry",
		},
	},
	{
		Name:   CategoryPetFamily,
		Weight: 5000,
		Items: []string{
			"Pet-Friendly Dogs", "Pet-Friendly Cats", "Dog Run", "Crib",
			"Pack n Play", "High Chair", "Baby Gate", "Board Games",
			"Child-safe Locks",
		},
	},
	{
		Name:   CategoryBusiness,
		Weight: 3000,
		Items: []string{
			"High-speed Fiber", "Office Desk", "Printer/Scanner",
			"Ring Light", "Meeting Space", "Quiet Hours", "Coffee Station",
		},
	},
	{
		Name:   CategorySafety,
		Weight: 2500,
		Items: []string{
			"24/7 Check-in", "Smart Lock", "Concierge", "Housekeeping",
			"Essentials Provided", "Smoke Detector", "CO2 Detector",
			"Fire Extinguisher", "First Aid Kit", "Safe/Lockbox",
			"Security Cameras", "Generator",
		},
	},
	{
		Name:   CategoryExperience,
		Weight: 18000,
		Items: []string{
			"Near Landmarks", "Local Partnerships", "Kayaks/Bikes Included",
			"On-site Experiences", "Themed Interior", "Instagrammable Design",
			"Near Nightlife", "Sustainability Features",
		},
	},
}

// amenityIndex maps an amenity name to the indexes of the categories listing it.
var amenityIndex = buildAmenityIndex()

func buildAmenityIndex() map[string][]int {
	idx := make(map[string][]int)
	for ci, c := range catalog {
		for _, item := range c.Items {
			idx[item] = append(idx[item], ci)
		}
	}
	return idx
}

// Catalog returns a copy of the amenity catalog in display order.
func Catalog() []AmenityCategory {
	out := make([]AmenityCategory, len(catalog))
	for i, c := range catalog {
		out[i] = AmenityCategory{
			Name:   c.Name,
			Weight: c.Weight,
			Items:  append([]string(nil), c.Items...),
		}
	}
	return out
}

// LookupAmenity returns the names of the categories that list the amenity.
// Unknown amenities return nil.
func LookupAmenity(name string) []string {
	cats := amenityIndex[strings.TrimSpace(name)]
	if len(cats) == 0 {
		return nil
	}
	names := make([]string, len(cats))
	for i, ci := range cats {
		names[i] = catalog[ci].Name
	}
	return names
}

// amenitySet de-duplicates the selection and drops blanks.
func amenitySet(selected []string) []string {
	seen := make(map[string]bool, len(selected))
	var out []string
	for _, a := range selected {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// scoreAmenities returns the weighted bonus, per-category counts and the
// number of recognized amenities in the selection.
func scoreAmenities(selected []string) (bonus float64, counts map[string]int, recognized int) {
	counts = make(map[string]int)
	for _, a := range amenitySet(selected) {
		cats, ok := amenityIndex[a]
		if !ok {
			continue
		}
		recognized++
		for _, ci := range cats {
			counts[catalog[ci].Name]++
		}
	}
	for _, c := range catalog {
		bonus += float64(counts[c.Name]) * c.Weight
	}
	return bonus, counts, recognized
}
