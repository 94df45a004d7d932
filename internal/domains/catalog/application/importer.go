package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
	"github.com/Apurer/marketplace-api/internal/domains/catalog/ports"
)

// ErrInvalidInput signals the document could not be parsed or failed validation.
var ErrInvalidInput = errors.New("invalid price list")

// Importer parses supplier price lists and hands them to the catalog writer.
type Importer struct {
	writer ports.Writer
	logger *slog.Logger
}

// NewImporter wires the importer. A nil logger disables logging.
func NewImporter(writer ports.Writer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{writer: writer, logger: logger}
}

// Parse decodes and validates a YAML price list. Unknown keys are ignored.
func Parse(r io.Reader) (domain.PriceList, error) {
	var list domain.PriceList
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return list, fmt.Errorf("%w: document is empty", ErrInvalidInput)
		}
		return list, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := list.Validate(); err != nil {
		return list, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return list, nil
}

// Import parses the document and applies it on behalf of the supplier account.
func (i *Importer) Import(ctx context.Context, ownerID int64, r io.Reader) (*domain.ImportResult, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner id must be positive", ErrInvalidInput)
	}
	list, err := Parse(r)
	if err != nil {
		return nil, err
	}
	result, err := i.writer.ApplyPriceList(ctx, ownerID, list)
	if err != nil {
		i.logger.ErrorContext(ctx, "price list import failed",
			slog.Int64("owner.id", ownerID),
			slog.String("shop", list.Shop),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	i.logger.InfoContext(ctx, "price list imported",
		slog.Int64("owner.id", ownerID),
		slog.Int64("shop.id", result.ShopID),
		slog.Int("items", list.ItemCount()),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
	)
	return result, nil
}
