package catalog

// Badge describes the colour-coded sticker for a category: one outer
// circle colour plus up to three dot colours. Keyed by exact category
// name; unknown categories get no badge.
type Badge struct {
	Outer string   `json:"outer"`
	Dots  []string `json:"dots"`
}

var categoryBadges = map[string]Badge{
	"Story Books":                   {Outer: "#0000FF", Dots: []string{}},
	"Chapter Books":                 {Outer: "#0000FF", Dots: []string{"#FF0000"}},
	"Graphic Novels":                {Outer: "#0000FF", Dots: []string{"#FFFF00"}},
	"Tales & Legends":               {Outer: "#0000FF", Dots: []string{"#00FF00"}},
	"Jokes, Riddles, Songs & Poetry": {Outer: "#0000FF", Dots: []string{"#00FF00", "#FF0000", "#FFFF00"}},
	"Alphabet & Dictionaries":       {Outer: "#0000FF", Dots: []string{"#FFFFFF"}},

	"Earth Science": {Outer: "#00FF00", Dots: []string{}},
	"Animals":       {Outer: "#00FF00", Dots: []string{"#FF0000"}},
	"Space":         {Outer: "#00FF00", Dots: []string{"#0000FF"}},
	"The Body":      {Outer: "#00FF00", Dots: []string{"#FFFF00"}},
	"Machines":      {Outer: "#00FF00", Dots: []string{"#FFFFFF"}},
	"Experiments":   {Outer: "#00FF00", Dots: []string{"#0000FF", "#FF0000", "#FFFF00"}},

	"Multicultural":         {Outer: "#FFFF00", Dots: []string{}},
	"Travel":                {Outer: "#FFFF00", Dots: []string{"#FF0000"}},
	"Celebrations":          {Outer: "#FFFF00", Dots: []string{"#0000FF"}},
	"Inspirational Figures": {Outer: "#FFFF00", Dots: []string{"#00FF00"}},
	"World Languages":       {Outer: "#FFFF00", Dots: []string{"#0000FF", "#FF0000", "#00FF00"}},

	"Arts":    {Outer: "#FF0000", Dots: []string{}},
	"Cooking": {Outer: "#FF0000", Dots: []string{"#00FF00"}},
	"Sports":  {Outer: "#FF0000", Dots: []string{"#0000FF"}},
	"Numbers": {Outer: "#FF0000", Dots: []string{"#FFFF00"}},
	"Community Building / Social Emotional": {Outer: "#FF0000", Dots: []string{"#0000FF", "#FFFF00", "#00FF00"}},

	"Grade 5+": {Outer: "#741B47", Dots: []string{}},
}

// BadgeFor looks up the badge for a category name.
func BadgeFor(name string) (Badge, bool) {
	b, ok := categoryBadges[name]
	return b, ok
}

// Badges returns the full table, for clients that render the legend.
func Badges() map[string]Badge {
	out := make(map[string]Badge, len(categoryBadges))
	for k, v := range categoryBadges {
		out[k] = v
	}
	return out
}
