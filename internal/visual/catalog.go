// Package visual implements the picture-password catalog used by student
// logins: fixed option sets per password type and the matching rule that
// compares a submitted selection against a student's stored spec.
package visual

// Type tags a visual password spec and selects its catalog.
type Type string

const (
	TypeAnimal     Type = "animal"
	TypeObject     Type = "object"
	TypeColorShape Type = "color_shape"
)

// Option is one selectable entry in a catalog. IDs are stable and are the
// values compared against CorrectAnswer.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Glyph string `json:"glyph"`
}

var animalOptions = []Option{
	{ID: "cat", Label: "Cat", Glyph: "🐱"},
	{ID: "dog", Label: "Dog", Glyph: "🐶"},
	{ID: "rabbit", Label: "Rabbit", Glyph: "🐰"},
	{ID: "bear", Label: "Bear", Glyph: "🐻"},
	{ID: "lion", Label: "Lion", Glyph: "🦁"},
	{ID: "elephant", Label: "Elephant", Glyph: "🐘"},
	{ID: "fish", Label: "Fish", Glyph: "🐟"},
	{ID: "bird", Label: "Bird", Glyph: "🐦"},
	{ID: "turtle", Label: "Turtle", Glyph: "🐢"},
}

var objectOptions = []Option{
	{ID: "ball", Label: "Ball", Glyph: "⚽"},
	{ID: "car", Label: "Car", Glyph: "🚗"},
	{ID: "book", Label: "Book", Glyph: "📖"},
	{ID: "star", Label: "Star", Glyph: "⭐"},
	{ID: "house", Label: "House", Glyph: "🏠"},
	{ID: "tree", Label: "Tree", Glyph: "🌳"},
	{ID: "cup", Label: "Cup", Glyph: "🥤"},
	{ID: "key", Label: "Key", Glyph: "🔑"},
	{ID: "balloon", Label: "Balloon", Glyph: "🎈"},
}

var (
	colors = []string{"red", "blue", "green", "yellow"}
	shapes = []string{"circle", "square", "triangle", "star"}

	colorGlyphs = map[string]string{
		"red":    "🔴",
		"blue":   "🔵",
		"green":  "🟢",
		"yellow": "🟡",
	}
)

var colorShapeOptions = buildColorShapeOptions()

func buildColorShapeOptions() []Option {
	options := make([]Option, 0, len(colors)*len(shapes))
	for _, color := range colors {
		for _, shape := range shapes {
			options = append(options, Option{
				ID:    color + "-" + shape,
				Label: title(color) + " " + title(shape),
				Glyph: colorGlyphs[color],
			})
		}
	}
	return options
}

func title(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Options returns the catalog for a password type. The returned slice is
// shared static configuration and must not be mutated.
func Options(t Type) []Option {
	switch t {
	case TypeAnimal:
		return animalOptions
	case TypeObject:
		return objectOptions
	case TypeColorShape:
		return colorShapeOptions
	default:
		return nil
	}
}
