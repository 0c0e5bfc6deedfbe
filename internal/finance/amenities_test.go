package finance

import "testing"

func TestCatalogReturnsCopy(t *testing.T) {
	c := Catalog()
	if len(c) != 8 {
		t.Fatalf("got %d categories, want 8", len(c))
	}
	c[0].Items[0] = "Moat"
	c[0].Weight = 1

	again := Catalog()
	if again[0].Items[0] == "Moat" || again[0].Weight == 1 {
		t.Error("Catalog exposed internal state")
	}
}

func TestLookupAmenity(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{name: "Wi-Fi", want: []string{CategoryCore}},
		{name: " Beachfront ", want: []string{CategoryLocation}},
		{name: "Mountain View", want: []string{CategoryOutdoor, CategoryLocation}},
		{name: "Moat", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LookupAmenity(tt.name)
			if len(got) != len(tt.want) {
				t.Fatalf("LookupAmenity(%q) = %v, want %v", tt.name, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("LookupAmenity(%q)[%d] = %q, want %q", tt.name, i, got[i], tt.want[i])
				}
			}
		})
	}
}
