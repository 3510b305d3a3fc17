package theme

import "testing"

func TestByNameDefaults(t *testing.T) {
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Fatalf("ByName(unknown) = %q, want %q", got, FlexokiDark.Name)
	}
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Fatalf("ByName(tokyo-night) = %q", got)
	}
}

func TestNextCycles(t *testing.T) {
	name := All[0].Name
	seen := map[string]bool{}
	for range All {
		seen[name] = true
		name = Next(name)
	}
	if name != All[0].Name {
		t.Fatalf("Next did not wrap: got %q", name)
	}
	if len(seen) != len(All) {
		t.Fatalf("visited %d themes, want %d", len(seen), len(All))
	}
	if Next("unknown") != All[0].Name {
		t.Fatal("Next(unknown) should restart at the first theme")
	}
}
