package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return c
}

func TestDefaultLabelSpace(t *testing.T) {
	c := mustDefault(t)
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, c.Labels()); diff != "" {
		t.Fatalf("unexpected labels (-want +got):\n%s", diff)
	}
	if err := c.CheckLabels([]int{0, 1, 2, 3, 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultNames(t *testing.T) {
	c := mustDefault(t)
	want := []string{"No Disease", "Cirrhosis", "Hepatitis", "Fibrosis", "Suspect Disease"}
	var got []string
	for _, cat := range c.Categories() {
		got = append(got, cat.Name)
		if cat.Description == "" || cat.Precautions == "" || !strings.HasPrefix(cat.ImageURL, "https://") {
			t.Fatalf("incomplete category %+v", cat)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestDefaultTextUnescaped(t *testing.T) {
	cat, err := mustDefault(t).Lookup(0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cat.Description, "Here’s to your continued health") {
		t.Fatalf("expected typographic apostrophe to survive sanitizing, got %q", cat.Description)
	}
	if !strings.Contains(cat.ImageURL, "&w=0&k=20") {
		t.Fatalf("image url query mangled: %q", cat.ImageURL)
	}

	cirrhosis, _ := mustDefault(t).Lookup(1)
	suspect, _ := mustDefault(t).Lookup(4)
	if !strings.Contains(cirrhosis.Precautions, "diet that’s low in sodium") || !strings.Contains(suspect.Description, "It’s a cautionary sign") {
		t.Fatalf("expected typographic apostrophes, got %q / %q", cirrhosis.Precautions, suspect.Description)
	}
}

func TestLookupUnknownLabel(t *testing.T) {
	_, err := mustDefault(t).Lookup(5)
	if !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestCheckLabels(t *testing.T) {
	c := mustDefault(t)
	cases := []struct {
		name    string
		classes []int
	}{
		{"missing entry", []int{0, 1, 2, 3, 4, 5}},
		{"stray entry", []int{0, 1, 2, 3}},
		{"different space", []int{1, 2, 3, 4, 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := c.CheckLabels(tc.classes); !errors.Is(err, ErrLabelSpace) {
				t.Fatalf("expected ErrLabelSpace, got %v", err)
			}
		})
	}
}

func TestLoadStripsMarkup(t *testing.T) {
	c, err := Load(strings.NewReader(`
categories:
  - label: 0
    name: "<b>Healthy</b>"
    description: "Fine <script>alert(1)</script>liver"
    precautions: "Drink water & rest"
    image: https://example.com/a.jpg
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cat, _ := c.Lookup(0)
	want := Category{
		Label:       0,
		Name:        "Healthy",
		Description: "Fine liver",
		Precautions: "Drink water & rest",
		ImageURL:    "https://example.com/a.jpg",
	}
	if diff := cmp.Diff(want, cat); diff != "" {
		t.Fatalf("unexpected category (-want +got):\n%s", diff)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "categories: []", "no categories"},
		{"missing label", "categories:\n  - name: A\n    description: d\n    precautions: p\n    image: https://x.io/a.png", "no label"},
		{"duplicate", "categories:\n  - {label: 1, name: A, description: d, precautions: p, image: 'https://x.io/a'}\n  - {label: 1, name: B, description: d, precautions: p, image: 'https://x.io/b'}", "duplicate"},
		{"missing text", "categories:\n  - {label: 1, name: A, description: '', precautions: p, image: 'https://x.io/a'}", "needs name"},
		{"relative image", "categories:\n  - {label: 1, name: A, description: d, precautions: p, image: '/img/a.png'}", "absolute"},
		{"bad yaml", "categories: [", "decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
