package server

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/tidwall/gjson"
)

// indexed wraps a record with the searchable text and parsed tree derived
// from it. Both are computed on first use.
type indexed struct {
	rec *store.Record

	textDone bool
	text     string

	xmlDone bool
	xml     *etree.Document
}

func newIndexed(rec *store.Record) *indexed {
	return &indexed{rec: rec}
}

// Text returns the lower-cased words of the document
func (d *indexed) Text() string {
	if d.textDone {
		return d.text
	}
	d.textDone = true
	var b strings.Builder
	switch d.rec.Format {
	case wire.FormatJSON:
		if gjson.ValidBytes(d.rec.Content) {
			jsonText(gjson.ParseBytes(d.rec.Content), &b)
		}
	case wire.FormatXML:
		if doc := d.XML(); doc != nil && doc.Root() != nil {
			xmlText(doc.Root(), &b)
		}
	case wire.FormatText:
		b.Write(d.rec.Content)
	}
	d.text = strings.ToLower(b.String())
	return d.text
}

func jsonText(r gjson.Result, b *strings.Builder) {
	switch {
	case r.IsObject() || r.IsArray():
		r.ForEach(func(_, v gjson.Result) bool {
			jsonText(v, b)
			return true
		})
	case r.Type == gjson.String || r.Type == gjson.Number:
		b.WriteString(r.String())
		b.WriteByte(' ')
	}
}

func xmlText(e *etree.Element, b *strings.Builder) {
	for _, child := range e.Child {
		switch t := child.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
			b.WriteByte(' ')
		case *etree.Element:
			xmlText(t, b)
		}
	}
}

// XML returns the parsed tree of an XML document, or nil
func (d *indexed) XML() *etree.Document {
	if d.xmlDone {
		return d.xml
	}
	d.xmlDone = true
	if d.rec.Format != wire.FormatXML {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(d.rec.Content); err == nil {
		d.xml = doc
	}
	return d.xml
}

// Values returns every value found at a locator, in document order
func (d *indexed) Values(l wire.Locator) []string {
	if l.IsKey() {
		if d.rec.Format != wire.FormatJSON {
			return nil
		}
		return jsonValues(gjson.GetBytes(d.rec.Content, l.Key))
	}
	doc := d.XML()
	if doc == nil || doc.Root() == nil {
		return nil
	}
	var out []string
	walkElements(doc.Root(), func(e *etree.Element) {
		if e.Tag != l.Element || (l.ElementNS != "" && e.NamespaceURI() != l.ElementNS) {
			return
		}
		if l.Attribute == "" {
			out = append(out, strings.TrimSpace(textContent(e)))
			return
		}
		for i := range e.Attr {
			a := &e.Attr[i]
			if a.Key == l.Attribute && (l.AttributeNS == "" || a.NamespaceURI() == l.AttributeNS) {
				out = append(out, a.Value)
			}
		}
	})
	return out
}

func jsonValues(r gjson.Result) []string {
	switch {
	case !r.Exists():
		return nil
	case r.IsArray():
		var out []string
		for _, v := range r.Array() {
			out = append(out, jsonValues(v)...)
		}
		return out
	case r.IsObject():
		return nil
	}
	return []string{r.String()}
}

func walkElements(e *etree.Element, fn func(*etree.Element)) {
	fn(e)
	for _, child := range e.ChildElements() {
		walkElements(child, fn)
	}
}

func textContent(e *etree.Element) string {
	var b strings.Builder
	for _, child := range e.Child {
		switch t := child.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			b.WriteString(textContent(t))
		}
	}
	return b.String()
}
