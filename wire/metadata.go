package wire

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Category names a part of a stored document that can be read or written
// independently.
type Category string

const (
	CategoryContent     Category = "content"
	CategoryMetadata    Category = "metadata"
	CategoryCollections Category = "collections"
	CategoryPermissions Category = "permissions"
	CategoryProperties  Category = "properties"
	CategoryQuality     Category = "quality"
)

// MetadataCategories are the categories that make up document metadata
var MetadataCategories = []Category{
	CategoryCollections,
	CategoryPermissions,
	CategoryProperties,
	CategoryQuality,
}

// ParseCategory converts a category name to a Category
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	switch c {
	case CategoryContent, CategoryMetadata, CategoryCollections,
		CategoryPermissions, CategoryProperties, CategoryQuality:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// ExpandCategories replaces CategoryMetadata with the individual metadata
// categories and removes duplicates. The content category is preserved.
func ExpandCategories(categories []Category) []Category {
	var out []Category
	add := func(c Category) {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	for _, c := range categories {
		if c == CategoryMetadata {
			for _, mc := range MetadataCategories {
				add(mc)
			}
			continue
		}
		add(c)
	}
	return out
}

// HasMetadataCategory reports whether any metadata category is requested
func HasMetadataCategory(categories []Category) bool {
	for _, c := range categories {
		if c != CategoryContent {
			return true
		}
	}
	return false
}

// Capability is an action a role may perform on a document
type Capability string

const (
	CapabilityRead    Capability = "read"
	CapabilityUpdate  Capability = "update"
	CapabilityInsert  Capability = "insert"
	CapabilityExecute Capability = "execute"
)

// Metadata holds the properties of a document that are stored alongside its
// content.
type Metadata struct {
	Collections []string                `json:"collections,omitempty"`
	Permissions map[string][]Capability `json:"permissions,omitempty"`
	Properties  map[string]string       `json:"properties,omitempty"`
	Quality     int                     `json:"quality,omitempty"`
}

// NewMetadata returns empty metadata ready for use
func NewMetadata() *Metadata {
	return &Metadata{
		Permissions: map[string][]Capability{},
		Properties:  map[string]string{},
	}
}

// Copy returns a deep copy of the metadata
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	out := &Metadata{
		Collections: slices.Clone(m.Collections),
		Quality:     m.Quality,
	}
	if m.Permissions != nil {
		out.Permissions = make(map[string][]Capability, len(m.Permissions))
		for role, caps := range m.Permissions {
			out.Permissions[role] = slices.Clone(caps)
		}
	}
	if m.Properties != nil {
		out.Properties = make(map[string]string, len(m.Properties))
		for k, v := range m.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// Select returns a copy holding only the requested categories
func (m *Metadata) Select(categories []Category) *Metadata {
	out := &Metadata{}
	if m == nil {
		return out
	}
	src := m.Copy()
	for _, c := range ExpandCategories(categories) {
		switch c {
		case CategoryCollections:
			out.Collections = src.Collections
		case CategoryPermissions:
			out.Permissions = src.Permissions
		case CategoryProperties:
			out.Properties = src.Properties
		case CategoryQuality:
			out.Quality = src.Quality
		}
	}
	return out
}

// Merge overwrites the requested categories of m with those of other
func (m *Metadata) Merge(other *Metadata, categories []Category) {
	if other == nil {
		other = &Metadata{}
	}
	src := other.Copy()
	for _, c := range ExpandCategories(categories) {
		switch c {
		case CategoryCollections:
			m.Collections = src.Collections
		case CategoryPermissions:
			m.Permissions = src.Permissions
		case CategoryProperties:
			m.Properties = src.Properties
		case CategoryQuality:
			m.Quality = src.Quality
		}
	}
}

// AddCollections adds collections that are not already present
func (m *Metadata) AddCollections(collections ...string) {
	for _, c := range collections {
		if !slices.Contains(m.Collections, c) {
			m.Collections = append(m.Collections, c)
		}
	}
	sort.Strings(m.Collections)
}

// InCollection reports whether the document belongs to the collection
func (m *Metadata) InCollection(collection string) bool {
	return m != nil && slices.Contains(m.Collections, collection)
}

// AddPermission grants capabilities to a role
func (m *Metadata) AddPermission(role string, caps ...Capability) {
	if m.Permissions == nil {
		m.Permissions = map[string][]Capability{}
	}
	for _, c := range caps {
		if !slices.Contains(m.Permissions[role], c) {
			m.Permissions[role] = append(m.Permissions[role], c)
		}
	}
}

// SetProperty sets a single property value
func (m *Metadata) SetProperty(name, value string) {
	if m.Properties == nil {
		m.Properties = map[string]string{}
	}
	m.Properties[name] = value
}
