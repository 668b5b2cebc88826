package domain

// Reply is one fixed option in an interactive button or list message.
// Inbound selections are matched against the catalogs below by exact
// id + title pair.
type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Button reply catalog. IDs are fixed by the conversation design and
// referenced by the webhook dispatcher.
var (
	PickReply     = Reply{ID: "1", Title: "Pick"}
	DropReply     = Reply{ID: "2", Title: "Drop"}
	EditPickReply = Reply{ID: "3", Title: "Edit Pick"}
	EditDropReply = Reply{ID: "4", Title: "Edit Drop"}
)

// Section is a titled group of time-slot rows in an interactive list message.
type Section struct {
	Title string
	Rows  []Reply
}

// PickSection holds the morning pickup slots.
var PickSection = Section{
	Title: "pick",
	Rows: []Reply{
		{ID: "1", Title: "08:30 AM"},
		{ID: "2", Title: "08:50 AM"},
		{ID: "3", Title: "09:10 AM"},
		{ID: "4", Title: "09:30 AM"},
		{ID: "5", Title: "09:50 AM"},
		{ID: "6", Title: "10:15 AM"},
		{ID: "7", Title: "10:45 AM"},
		{ID: "8", Title: "11:15 AM"},
	},
}

// DropSection holds the evening drop slots.
var DropSection = Section{
	Title: "drop",
	Rows: []Reply{
		{ID: "1", Title: "04:30 PM"},
		{ID: "2", Title: "04:50 PM"},
		{ID: "3", Title: "05:10 PM"},
		{ID: "4", Title: "05:30 PM"},
		{ID: "5", Title: "05:50 PM"},
		{ID: "6", Title: "06:10 PM"},
		{ID: "7", Title: "06:30 PM"},
		{ID: "8", Title: "07:00 PM"},
		{ID: "9", Title: "07:30 PM"},
	},
}

// AllSections lists every slot section in catalog order.
var AllSections = []Section{PickSection, DropSection}

// FindSlotSection returns the route type of the section containing an exact
// id + title match for the given list selection, or false when no section
// has it.
func FindSlotSection(selection Reply) (RouteType, bool) {
	for _, section := range AllSections {
		for _, row := range section.Rows {
			if row.ID == selection.ID && row.Title == selection.Title {
				return RouteType(section.Title), true
			}
		}
	}
	return "", false
}

// Route anchor orderings. The drop route is the pick route reversed.
var (
	RoutePickKeys = []string{"metro", "neon", "xenon", "argon"}
	RouteDropKeys = []string{"argon", "xenon", "neon", "metro"}
)

// RouteKeys returns the ordered anchor keys for a route type.
func RouteKeys(t RouteType) []string {
	if t == RoutePick {
		return RoutePickKeys
	}
	return RouteDropKeys
}

// AnchorKey returns the route key of the reference stop used to validate
// live-location proximity: riders board at the metro for pickups and at
// the office for drops.
func AnchorKey(t RouteType) string {
	if t == RoutePick {
		return "metro"
	}
	return "argon"
}
