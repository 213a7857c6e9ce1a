// Package catalogfile reads the YAML catalog seed file and loads it into
// the stores. Order in the file is catalog order: categories, modules and
// topics get their position from where they appear.
//
// A seed file looks like:
//
//	categories:
//	  - name: Workplace
//	    linear_gating: true
//	    modules:
//	      - name: Interviews
//	        linear_gating: true
//	        topics:
//	          - id: self-intro
//	            name: Self introduction
//	            difficulty: beginner
//	            estimated_minutes: 20
//	products:
//	  - id: mug
//	    name: Lingdou mug
//	    price: 40
//	    stock: 10
package catalogfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalog is returned for a file with nothing to seed.
var ErrEmptyCatalog = errors.New("catalog file has no categories or products")

// File is the decoded seed file.
type File struct {
	Categories []CategoryEntry  `yaml:"categories"`
	Products   []domain.Product `yaml:"products"`
}

// CategoryEntry is a category with its modules.
type CategoryEntry struct {
	domain.Category `yaml:",inline"`
	Modules         []ModuleEntry `yaml:"modules"`
}

// ModuleEntry is a module with its topics.
type ModuleEntry struct {
	domain.Module `yaml:",inline"`
	Topics        []domain.Topic `yaml:"topics"`
}

// Summary counts what a seed wrote.
type Summary struct {
	Categories int
	Modules    int
	Topics     int
	Products   int
}

// Count reports what Seed would write for f.
func (f *File) Count() Summary {
	sum := Summary{Categories: len(f.Categories), Products: len(f.Products)}
	for _, c := range f.Categories {
		sum.Modules += len(c.Modules)
		for _, m := range c.Modules {
			sum.Topics += len(m.Topics)
		}
	}
	return sum
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes a seed file and fills in the derived fields: positions and
// the parent names of modules and topics. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	if len(file.Categories) == 0 && len(file.Products) == 0 {
		return nil, ErrEmptyCatalog
	}

	for ci := range file.Categories {
		c := &file.Categories[ci]
		c.Position = ci
		for mi := range c.Modules {
			m := &c.Modules[mi]
			m.CategoryName = c.Name
			m.Position = mi
			for ti := range m.Topics {
				t := &m.Topics[ti]
				t.ModuleName = m.Name
				t.CategoryName = c.Name
				t.Position = ti
				if t.Difficulty == "" {
					t.Difficulty = domain.DifficultyBeginner
				}
				if t.EstimatedMinutes == 0 {
					t.EstimatedMinutes = domain.DefaultEstimatedMinutes
				}
			}
		}
	}
	return &file, nil
}

// Seed upserts every entry of file in one unit of work. Running it twice
// with the same file leaves the stores unchanged.
func Seed(ctx context.Context, uow store.UnitOfWork, file *File, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var sum Summary
	err := uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		sum = Summary{}
		for _, c := range file.Categories {
			category := c.Category
			if err := st.Catalog.UpsertCategory(ctx, &category); err != nil {
				return fmt.Errorf("category %q: %w", c.Name, err)
			}
			sum.Categories++
			for _, m := range c.Modules {
				module := m.Module
				if err := st.Catalog.UpsertModule(ctx, &module); err != nil {
					return fmt.Errorf("module %q: %w", m.Name, err)
				}
				sum.Modules++
				for _, t := range m.Topics {
					topic := t
					if err := st.Catalog.UpsertTopic(ctx, &topic); err != nil {
						return fmt.Errorf("topic %q: %w", t.ID, err)
					}
					sum.Topics++
				}
			}
		}
		for _, p := range file.Products {
			product := p
			if err := st.Shop.UpsertProduct(ctx, &product); err != nil {
				return fmt.Errorf("product %q: %w", p.ID, err)
			}
			sum.Products++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	logger.InfoContext(ctx, "catalog seeded",
		slog.Int("categories", sum.Categories),
		slog.Int("modules", sum.Modules),
		slog.Int("topics", sum.Topics),
		slog.Int("products", sum.Products))
	return sum, nil
}
