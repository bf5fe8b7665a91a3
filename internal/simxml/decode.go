// Package simxml holds the streaming XML plumbing shared by the simulator
// file readers (networks, additionals, routes and outputs).
package simxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html/charset"
)

// ElementFunc is called with the decoder positioned on a matching start element.
type ElementFunc func(d *xml.Decoder, start *xml.StartElement) error

// NewDecoder returns a decoder that understands non-UTF-8 encodings declared
// in the XML prolog.
func NewDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// Walk streams r and hands every start element whose local name has a handler
// to that handler. Elements without a handler are descended into, so nested
// matches are still found.
func Walk(r io.Reader, handlers map[string]ElementFunc) error {
	d := NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode token: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if h, ok := handlers[se.Name.Local]; ok {
			if err := h(d, &se); err != nil {
				return err
			}
		}
	}
}

// WalkFile opens path and runs Walk over it.
func WalkFile(path string, handlers map[string]ElementFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Walk(f, handlers); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Collect returns a handler that decodes each element into a new T and
// appends it to dst.
func Collect[T any](dst *[]T) ElementFunc {
	return func(d *xml.Decoder, start *xml.StartElement) error {
		var v T
		if err := d.DecodeElement(&v, start); err != nil {
			return fmt.Errorf("decode %s: %w", start.Name.Local, err)
		}
		*dst = append(*dst, v)
		return nil
	}
}
