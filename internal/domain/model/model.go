// Пакет model — записи Record Module: произведения и теги.
package model

import (
	"encoding/json"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// Artwork — произведение с изображением и необязательным превью.
// Поля image и preview хранят дескрипторы файловых артефактов;
// при сохранении в них передаётся содержимое в виде data URL.
type Artwork struct {
	record.Model
	Title       string
	Description *string
	Image       string
	Preview     *string
	Views       int64
	Published   bool
}

// ArtworkSchema — каталог полей произведения.
var ArtworkSchema = record.NewSchema("artworks", func() record.Record { return &Artwork{} },
	record.Field{Name: "title"},
	record.Field{Name: "description", Nullable: true},
	record.Field{Name: "image", Kind: record.File, UploadTo: "artworks/images"},
	record.Field{Name: "preview", Kind: record.File, Nullable: true, UploadTo: "artworks/previews"},
	record.Field{Name: "views", HasDefault: true},
	record.Field{Name: "published", HasDefault: true},
)

func (a *Artwork) Schema() *record.Schema { return ArtworkSchema }

// MarshalJSON сериализует произведение для API. Поля файлов выдаются
// дескрипторами; содержимое доступно через files/{field}.
func (a *Artwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Image       string  `json:"image"`
		Preview     *string `json:"preview"`
		Views       int64   `json:"views"`
		Published   bool    `json:"published"`
	}{a.ID(), a.Title, a.Description, a.Image, a.Preview, a.Views, a.Published})
}

func (a *Artwork) Get(field string) any {
	switch field {
	case "title":
		return a.Title
	case "description":
		return a.Description
	case "image":
		return a.Image
	case "preview":
		return a.Preview
	case "views":
		return a.Views
	case "published":
		return a.Published
	}
	return nil
}

func (a *Artwork) Set(field string, v any) (err error) {
	switch field {
	case "title":
		a.Title, err = record.AsString(v)
	case "description":
		a.Description, err = record.AsNullString(v)
	case "image":
		a.Image, err = record.AsString(v)
	case "preview":
		a.Preview, err = record.AsNullString(v)
	case "views":
		a.Views, err = record.AsInt64(v)
	case "published":
		a.Published, err = record.AsBool(v)
	default:
		return record.UnknownField(ArtworkSchema, field)
	}
	return err
}

// Tag — метка для группировки произведений. Создаётся и удаляется пакетно.
type Tag struct {
	record.Model
	Name  string
	Color *string
}

// TagSchema — каталог полей тега.
var TagSchema = record.NewSchema("tags", func() record.Record { return &Tag{} },
	record.Field{Name: "name"},
	record.Field{Name: "color", Nullable: true},
)

func (t *Tag) Schema() *record.Schema { return TagSchema }

func (t *Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    int64   `json:"id"`
		Name  string  `json:"name"`
		Color *string `json:"color"`
	}{t.ID(), t.Name, t.Color})
}

func (t *Tag) Get(field string) any {
	switch field {
	case "name":
		return t.Name
	case "color":
		return t.Color
	}
	return nil
}

func (t *Tag) Set(field string, v any) (err error) {
	switch field {
	case "name":
		t.Name, err = record.AsString(v)
	case "color":
		t.Color, err = record.AsNullString(v)
	default:
		return record.UnknownField(TagSchema, field)
	}
	return err
}
