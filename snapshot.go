package tally

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/tally/document"
)

// ExportSnapshot serializes the current book for backup. The file name
// conventionally used for it is document.ExportName(today).
func (t *Tally) ExportSnapshot(_ context.Context) ([]byte, error) {
	var out []byte
	err := t.read(func(doc *document.Document) error {
		data, err := document.EncodeIndent(doc)
		if err != nil {
			return err
		}
		out = data
		return nil
	})
	return out, err
}

// ExportName returns the backup file name for today.
func (t *Tally) ExportName() string {
	return document.ExportName(t.today())
}

// ImportSnapshot replaces the whole book with a serialized one. Nothing is
// merged. A snapshot that does not decode is rejected with
// ErrInvalidSnapshot and the current book is kept.
func (t *Tally) ImportSnapshot(ctx context.Context, data []byte) error {
	doc, err := document.Decode(data)
	if err != nil {
		if errors.Is(err, document.ErrMalformed) {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err) //nolint:errorlint // callers match ErrInvalidSnapshot
		}
		return err
	}
	return t.ReplaceAll(ctx, doc)
}

// ReplaceAll discards the current book for doc and saves it.
func (t *Tally) ReplaceAll(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return ErrInvalidSnapshot
	}
	replacement := doc.Clone()
	replacement.Normalize()

	err := t.write(ctx, "document.replace", func(next *document.Document) (func(), error) {
		*next = *replacement
		return func() {
			t.logger.Info("book replaced",
				"groups", len(replacement.Groups),
				"customers", len(replacement.Customers),
				"payments", len(replacement.Payments),
			)
			t.plugins.EmitDocumentImported(ctx, replacement.Clone())
		}, nil
	})
	return err
}
