package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPriceList = errors.New("price list is invalid")
	ErrInvalidPrice     = errors.New("price must be a non-negative decimal with at most two fractional digits")
)

// Price is an amount in minor currency units parsed from a decimal literal.
type Price int64

// ParsePrice converts "110000", "99.9" or "99.99" into minor units. Only ASCII digits
// and a single decimal point are accepted.
func ParsePrice(raw string) (Price, error) {
	raw = strings.TrimSpace(raw)
	whole, frac, hasPoint := strings.Cut(raw, ".")
	if !isDigits(whole) || (hasPoint && (!isDigits(frac) || len(frac) > 2)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	var cents int64
	if frac != "" {
		cents, err = strconv.ParseInt(frac+strings.Repeat("0", 2-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
		}
	}
	return Price(units*100 + cents), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// UnmarshalYAML accepts integer and decimal scalars without going through float64.
func (p *Price) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d", ErrInvalidPrice, value.Line)
	}
	parsed, err := ParsePrice(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = parsed
	return nil
}

// Parameters holds free-form product characteristics rendered as text.
type Parameters map[string]string

// UnmarshalYAML keeps the literal text of scalar values, e.g. 6.5 stays "6.5".
func (p *Parameters) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: parameters must be a mapping at line %d", ErrInvalidPriceList, value.Line)
	}
	out := make(Parameters, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: parameter %q must be a scalar", ErrInvalidPriceList, key.Value)
		}
		out[key.Value] = val.Value
	}
	*p = out
	return nil
}

// PriceList is a supplier's catalog document.
type PriceList struct {
	Shop       string     `yaml:"shop"`
	URL        string     `yaml:"url"`
	Categories []Category `yaml:"categories"`
}

type Category struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// Item is one priced product offered by the shop.
type Item struct {
	Name             string     `yaml:"name"`
	Model            string     `yaml:"model"`
	Price            Price      `yaml:"price"`
	RecommendedPrice Price      `yaml:"price_rrc"`
	Quantity         int        `yaml:"quantity"`
	Parameters       Parameters `yaml:"parameters"`
}

// Validate checks every entry and reports the first offending path.
func (l PriceList) Validate() error {
	if strings.TrimSpace(l.Shop) == "" {
		return fmt.Errorf("%w: shop name is required", ErrInvalidPriceList)
	}
	if len(l.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", ErrInvalidPriceList)
	}
	for ci, category := range l.Categories {
		if strings.TrimSpace(category.Name) == "" {
			return fmt.Errorf("%w: categories[%d].name is required", ErrInvalidPriceList, ci)
		}
		for ii, item := range category.Items {
			switch {
			case strings.TrimSpace(item.Name) == "":
				return fmt.Errorf("%w: categories[%d].items[%d].name is required", ErrInvalidPriceList, ci, ii)
			case item.Price <= 0:
				return fmt.Errorf("%w: categories[%d].items[%d].price must be positive", ErrInvalidPriceList, ci, ii)
			case item.Quantity < 0:
				return fmt.Errorf("%w: categories[%d].items[%d].quantity must not be negative", ErrInvalidPriceList, ci, ii)
			}
		}
	}
	return nil
}

// ItemCount totals the items across categories.
func (l PriceList) ItemCount() int {
	n := 0
	for _, category := range l.Categories {
		n += len(category.Items)
	}
	return n
}

// ImportResult summarizes an applied price list.
type ImportResult struct {
	ShopID     int64
	ShopName   string
	Categories int
	Created    int
	Updated    int
}
