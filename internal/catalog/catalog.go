// Package catalog holds the static category table keyed by classifier label.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultYAML []byte

var (
	// ErrUnknownLabel means the classifier produced a label the table does
	// not know. Training and presentation code have drifted apart.
	ErrUnknownLabel = errors.New("unknown category label")
	// ErrLabelSpace means the table keys and the classifier classes differ.
	ErrLabelSpace = errors.New("category labels do not match classifier classes")
)

type Category struct {
	Label       int    `json:"label"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Precautions string `json:"precautions"`
	ImageURL    string `json:"image"`
}

type document struct {
	Categories []struct {
		Label       *int   `yaml:"label"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Precautions string `yaml:"precautions"`
		Image       string `yaml:"image"`
	} `yaml:"categories"`
}

// Catalog is read-only after construction.
type Catalog struct {
	byLabel map[int]Category
	labels  []int
}

// Default parses the embedded table.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultYAML))
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("catalog: no categories defined")
	}

	c := &Catalog{byLabel: make(map[int]Category, len(doc.Categories))}
	for i, raw := range doc.Categories {
		if raw.Label == nil {
			return nil, fmt.Errorf("catalog: entry %d has no label", i)
		}
		label := *raw.Label
		if _, exists := c.byLabel[label]; exists {
			return nil, fmt.Errorf("catalog: duplicate label %d", label)
		}
		cat := Category{
			Label:       label,
			Name:        plainText(raw.Name),
			Description: plainText(raw.Description),
			Precautions: plainText(raw.Precautions),
			ImageURL:    strings.TrimSpace(raw.Image),
		}
		if cat.Name == "" || cat.Description == "" || cat.Precautions == "" {
			return nil, fmt.Errorf("catalog: label %d needs name, description and precautions", label)
		}
		if err := checkImageURL(cat.ImageURL); err != nil {
			return nil, fmt.Errorf("catalog: label %d: %w", label, err)
		}
		c.byLabel[label] = cat
		c.labels = append(c.labels, label)
	}
	sort.Ints(c.labels)
	return c, nil
}

func checkImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("image url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("image url %q must be an absolute http(s) url", raw)
	}
	return nil
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText strips any markup from operator-supplied text. Escaping happens
// at render time.
func plainText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	cleaned := textPolicy.Sanitize(strings.TrimSpace(raw))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Lookup returns the category for label or ErrUnknownLabel.
func (c *Catalog) Lookup(label int) (Category, error) {
	cat, ok := c.byLabel[label]
	if !ok {
		return Category{}, fmt.Errorf("%w: %d", ErrUnknownLabel, label)
	}
	return cat, nil
}

// Labels returns the known labels in ascending order.
func (c *Catalog) Labels() []int {
	return append([]int(nil), c.labels...)
}

// Categories returns every entry ordered by label.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.labels))
	for _, l := range c.labels {
		out = append(out, c.byLabel[l])
	}
	return out
}

// CheckLabels verifies the table covers exactly the classifier's classes.
func (c *Catalog) CheckLabels(classes []int) error {
	seen := make(map[int]bool, len(classes))
	var missing []int
	for _, cl := range classes {
		seen[cl] = true
		if _, ok := c.byLabel[cl]; !ok {
			missing = append(missing, cl)
		}
	}
	var stray []int
	for _, l := range c.labels {
		if !seen[l] {
			stray = append(stray, l)
		}
	}
	if len(missing) > 0 || len(stray) > 0 {
		return fmt.Errorf("%w: missing %v, stray %v", ErrLabelSpace, missing, stray)
	}
	return nil
}
