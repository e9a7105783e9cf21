package marketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

// ErrPromptRequired is returned when neither a prompt nor a product is given.
var ErrPromptRequired = errors.New("marketing: prompt or product required")

// Generator produces text for a prompt. *Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProductReader looks up catalog products.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// CopyInput requests promotional copy. An empty Prompt falls back to the
// default prompt for the product.
type CopyInput struct {
	ProductID string `json:"product_id"`
	Prompt    string `json:"prompt" validate:"omitempty,max=2000"`
}

// Copy is generated marketing text.
type Copy struct {
	ProductID string `json:"product_id,omitempty"`
	Prompt    string `json:"prompt"`
	Text      string `json:"text"`
}

// Service builds prompts from the catalog and calls the generator.
type Service struct {
	products  ProductReader
	generator Generator
	logger    *slog.Logger
}

// NewService wires the generator with the catalog.
func NewService(products ProductReader, generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{products: products, generator: generator, logger: logger}
}

// DefaultPrompt returns the stock Instagram prompt for a product.
func DefaultPrompt(p catalog.Product) string {
	prompt := fmt.Sprintf("Genera una publicación de Instagram (máx. 50 palabras y 3 emojis) para promocionar nuestro producto '%s'. Menciona su precio de $%s", p.Name, p.UnitPrice.StringFixed(2))
	if p.Category != "" {
		prompt += fmt.Sprintf(", su categoría %s,", p.Category)
	}
	return prompt + " y enfócate en la calidad y la necesidad en Panamá."
}

// Prompt returns the default prompt for a product id.
func (s *Service) Prompt(ctx context.Context, productID string) (string, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	return DefaultPrompt(product), nil
}

// GenerateCopy produces copy. Generator failures surface as
// ErrExternalService and never touch catalog or sale state.
func (s *Service) GenerateCopy(ctx context.Context, input CopyInput) (Copy, error) {
	prompt := strings.TrimSpace(input.Prompt)
	productID := catalog.NormalizeID(input.ProductID)
	if prompt == "" {
		if productID == "" {
			return Copy{}, ErrPromptRequired
		}
		var err error
		if prompt, err = s.Prompt(ctx, productID); err != nil {
			return Copy{}, err
		}
	}
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrExternalService) {
			err = fmt.Errorf("%w: %v", ErrExternalService, err)
		}
		s.logger.Warn("marketing copy", slog.String("product_id", productID), slog.Any("error", err))
		return Copy{}, err
	}
	return Copy{ProductID: productID, Prompt: prompt, Text: text}, nil
}
